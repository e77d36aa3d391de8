package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	ingestWatch  bool
	ingestPrefix string
	ingestTypes  []string
	uploadIndex  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index documents from object storage",
	Long: `Lists every document in object storage, extracts the text of accepted
documents (PDF by default), splits it into overlapping chunks, embeds them and
writes them to the vector index.

A document that fails is reported and skipped; the rest are still indexed.
With --watch, new and modified documents are indexed as they appear.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var ingestOneCmd = &cobra.Command{
	Use:   "ingest-one [name]",
	Short: "Index a single document from object storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runIngestOne,
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a local file to object storage",
	Long: `Stores a local file in object storage under its base name and extracts
its text into chunks. Pass --index to embed and index the chunks straight away.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep running and index changed documents")
	ingestCmd.Flags().StringVar(&ingestPrefix, "prefix", "", "only ingest documents under this prefix")
	ingestCmd.Flags().StringSliceVarP(&ingestTypes, "type", "t", nil, "accepted media types (pdf, text)")
	uploadCmd.Flags().BoolVar(&uploadIndex, "index", false, "index the chunks after uploading")

	pipelineOverrides[ingestCmd] = applyIngestTypes

	for _, c := range []*cobra.Command{ingestCmd, ingestOneCmd, uploadCmd} {
		requiresPipeline(c)
		rootCmd.AddCommand(c)
	}
}

func applyIngestTypes(settings *domain.AppSettings) error {
	if len(ingestTypes) == 0 {
		return nil
	}
	types := make([]domain.MediaType, 0, len(ingestTypes))
	for _, t := range ingestTypes {
		mt, err := domain.ParseMediaType(t)
		if err != nil {
			return err
		}
		types = append(types, mt)
	}
	settings.Ingest.MediaTypes = types
	return nil
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestWatch && objectWatcher == nil {
		return errors.New("storage backend does not support --watch")
	}

	ctx := cmd.Context()
	progress := newIngestProgress(cmd)
	report, err := ingestService.IngestAll(ctx, driving.IngestOptions{
		Prefix:     ingestPrefix,
		OnProgress: progress.update,
	})
	progress.finish()
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	summaryErr := printIngestReport(cmd, report)
	if !ingestWatch {
		return summaryErr
	}

	return watchAndIngest(ctx, cmd)
}

// printIngestReport prints the summary and returns the joined per-document
// failures, if any.
func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) error {
	succeeded := len(report.Succeeded())
	failed := report.Failed()

	cmd.Printf("Ingested %d of %d documents (%d chunks)", succeeded, len(report.Outcomes), report.TotalChunks())
	if len(report.Skipped) > 0 {
		cmd.Printf(", skipped %d", len(report.Skipped))
	}
	cmd.Println()
	if report.IndexSize >= 0 {
		cmd.Printf("Index now holds %d entries\n", report.IndexSize)
	}

	if len(failed) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("Failed:")
	errs := make([]error, 0, len(failed))
	for _, o := range failed {
		cmd.Printf("  %s: %v\n", o.Document, o.Err)
		errs = append(errs, fmt.Errorf("%s: %w", o.Document, o.Err))
	}
	return fmt.Errorf("%d of %d documents failed: %w", len(failed), len(report.Outcomes), errors.Join(errs...))
}

func watchAndIngest(ctx context.Context, cmd *cobra.Command) error {
	cmd.Println("Watching for changes (Ctrl+C to stop)...")

	err := objectWatcher.Watch(ctx, func(name string) {
		if strings.HasPrefix(name, domain.ChatLogPrefix) || !ingestService.Accepts(name) {
			return
		}
		outcome := ingestService.IngestDocument(ctx, name)
		if outcome.OK() {
			cmd.Printf("Indexed %s (%d chunks)\n", name, outcome.Chunks)
		} else {
			cmd.Printf("Failed %s: %v\n", name, outcome.Err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func runIngestOne(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	name := args[0]
	outcome := ingestService.IngestDocument(cmd.Context(), name)
	if !outcome.OK() {
		return fmt.Errorf("ingest %s failed: %w", name, outcome.Err)
	}

	cmd.Printf("Ingested %s (%d chunks)\n", name, outcome.Chunks)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	chunks, err := ingestService.Upload(ctx, args[0])
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	cmd.Printf("Uploaded %s (%d chunks)\n", args[0], len(chunks))

	if !uploadIndex {
		return nil
	}

	n, err := ingestService.IndexChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	cmd.Printf("Indexed %d chunks\n", n)
	return nil
}

// ingestProgress renders a progress bar on terminals and one line per
// document otherwise.
type ingestProgress struct {
	cmd *cobra.Command
	bar *progressbar.ProgressBar
	tty bool
}

func newIngestProgress(cmd *cobra.Command) *ingestProgress {
	return &ingestProgress{
		cmd: cmd,
		tty: cmd.OutOrStdout() == os.Stdout && term.IsTerminal(int(os.Stdout.Fd())) && !verbose,
	}
}

func (p *ingestProgress) update(done, total int, outcome domain.IngestOutcome) {
	if !p.tty {
		status := fmt.Sprintf("%d chunks", outcome.Chunks)
		if !outcome.OK() {
			status = "failed"
		}
		p.cmd.Printf("[%d/%d] %s: %s\n", done, total, outcome.Document, status)
		return
	}

	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stdout),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Set(done)
}

func (p *ingestProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.cmd.Println()
	}
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

const defaultUsername = "anonymous"

var (
	askUser  string
	askJSON  bool
	askTopK  int
	askNoLog bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed documents",
	Long: `Embeds the question, retrieves the most similar chunks from the vector
index and asks the LLM for an answer grounded in them.

When nothing relevant is indexed the answer says so without calling the LLM.
Every exchange is saved to chat_logs/ in object storage unless --no-log is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", currentUser(), "username recorded in the chat log")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askNoLog, "no-log", false, "do not write a chat log")
	requiresPipeline(askCmd)
	rootCmd.AddCommand(askCmd)
}

func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return defaultUsername
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if queryService == nil {
		return errors.New("query service not configured")
	}

	ctx := cmd.Context()
	answer, err := queryService.Ask(ctx, question, driving.AskOptions{TopK: askTopK})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if chatLogService != nil && !askNoLog {
		rec := domain.NewChatRecord(askUser, question, *answer, time.Now())
		if key, err := chatLogService.Record(ctx, rec); err != nil {
			logger.Warn("chat log not saved: %v", err)
		} else {
			logger.Debug("chat log saved to %s", key)
		}
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(renderAnswer(answer))
	return nil
}

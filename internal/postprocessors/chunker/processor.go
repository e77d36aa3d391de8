// Package chunker provides a recursive separator-aware text chunker.
package chunker

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// DefaultSeparators lists split points from most to least natural:
// paragraph, line, sentence end, clause, word, then any character.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", ";", " ", ""}

// Processor splits text into chunks of at most chunkSize characters.
// Each boundary is placed at the last occurrence of the most natural
// separator that fits, and the next chunk restarts overlap characters
// before that boundary, moved forward past any whitespace.
type Processor struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator preference list.
// The empty separator is always appended so splitting can fall back to a character boundary.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		if len(seps) > 0 {
			p.separators = toRunes(seps)
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: toRunes(DefaultSeparators),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "recursive"
}

// ChunkSize returns the configured maximum chunk length.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap length.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Split returns the trimmed, non-empty chunks of text.
// Lengths are measured in runes.
func (p *Processor) Split(text string) []string {
	r := []rune(strings.TrimSpace(text))
	n := len(r)
	if n == 0 {
		return nil
	}
	if n <= p.chunkSize {
		return []string{string(r)}
	}

	var chunks []string
	start, prevEnd := 0, 0

	// start always sits on a non-space rune.
	for {
		hi := start + p.chunkSize
		if hi >= n {
			return appendChunk(chunks, r[start:n])
		}

		end, ok := p.boundary(r, start, prevEnd, hi)
		if !ok {
			// Nothing but whitespace between the previous chunk and hi.
			start = skipSpace(r, hi)
			prevEnd = start
			continue
		}
		chunks = appendChunk(chunks, r[start:end])

		start = p.nextStart(start, end)
		start = skipSpace(r, start)
		prevEnd = end
	}
}

// ChunkDocument splits text and stamps each piece with source and its ordinal.
func (p *Processor) ChunkDocument(source, text string) []domain.Chunk {
	return domain.NewChunks(source, p.Split(text))
}

// boundary picks the end of the chunk starting at start. The chunk must
// extend past prevEnd and stay within hi. The returned end never sits
// after trailing whitespace. ok is false when only whitespace lies
// between prevEnd and hi.
func (p *Processor) boundary(r []rune, start, prevEnd, hi int) (end int, ok bool) {
	floor := max(prevEnd, start)

	for _, sep := range p.separators {
		if len(sep) == 0 {
			break
		}
		for idx := hi - len(sep); idx >= floor; idx-- {
			if !matchAt(r, idx, sep) {
				continue
			}
			if e := trimRightIndex(r, start, idx+len(sep)); e > floor {
				return e, true
			}
			// Every earlier match ends even sooner.
			break
		}
	}

	// Character boundary.
	end = trimRightIndex(r, start, hi)
	return end, end > floor
}

// nextStart returns where the chunk after [start, end) begins: overlap
// runes before end. A chunk no longer than the overlap is not repeated.
func (p *Processor) nextStart(start, end int) int {
	next := end - p.overlap
	if next <= start {
		return end
	}
	return next
}

func appendChunk(chunks []string, r []rune) []string {
	if c := strings.TrimSpace(string(r)); c != "" {
		return append(chunks, c)
	}
	return chunks
}

// skipSpace returns the index of the first non-space rune at or after i.
func skipSpace(r []rune, i int) int {
	for i < len(r) && unicode.IsSpace(r[i]) {
		i++
	}
	return i
}

func trimRightIndex(r []rune, start, end int) int {
	for end > start && unicode.IsSpace(r[end-1]) {
		end--
	}
	return end
}

func matchAt(r []rune, idx int, sep []rune) bool {
	if idx < 0 || idx+len(sep) > len(r) {
		return false
	}
	for i, c := range sep {
		if r[idx+i] != c {
			return false
		}
	}
	return true
}

func toRunes(seps []string) [][]rune {
	out := make([][]rune, 0, len(seps)+1)
	for _, s := range seps {
		out = append(out, []rune(s))
	}
	if len(out[len(out)-1]) != 0 {
		out = append(out, nil)
	}
	return out
}

package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// --- Mock implementations ---

// fakeEmbedder maps text to letter counts of a, b and c.
type fakeEmbedder struct {
	mu       sync.Mutex
	calls    int
	failures int // fail this many calls before succeeding
	err      error
	short    bool // return one vector fewer than requested
}

func (f *fakeEmbedder) Embed(_ context.Context, texts ...string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil && (f.failures == 0 || f.calls <= f.failures) {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, letterVector(t))
	}
	if f.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeEmbedder) Dimensions() int             { return 3 }
func (f *fakeEmbedder) ModelName() string           { return "letters" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                { return nil }

func letterVector(text string) []float32 {
	return []float32{
		float32(strings.Count(text, "a")),
		float32(strings.Count(text, "b")),
		float32(strings.Count(text, "c")),
	}
}

// fakeIndex is a brute-force cosine index.
type fakeIndex struct {
	mu         sync.Mutex
	entries    map[string]domain.IndexEntry
	dims       int
	upserts    int
	upsertErr  error
	queryErr   error
	ensureErr  error
	countErr   error
	extraMatch int // return this many matches beyond topK
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]domain.IndexEntry)}
}

func (f *fakeIndex) EnsureIndex(_ context.Context, dims int) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	if f.dims == 0 {
		f.dims = dims
	}
	return nil
}

func (f *fakeIndex) Upsert(_ context.Context, entries []domain.IndexEntry) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	for _, e := range entries {
		f.entries[e.ID] = e
	}
	return len(entries), nil
}

func (f *fakeIndex) Query(_ context.Context, vector []float32, topK int) ([]domain.QueryMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	matches := make([]domain.QueryMatch, 0, len(f.entries))
	for _, e := range f.entries {
		matches = append(matches, domain.QueryMatch{ID: e.ID, Score: cosine(vector, e.Vector), Metadata: e.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if limit := topK + f.extraMatch; len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (f *fakeIndex) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.entries), nil
}

func (f *fakeIndex) Close() error { return nil }

func (f *fakeIndex) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.entries))
	for id := range f.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fakeLLM returns a canned response and records prompts.
type fakeLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	deadline bool
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	_, f.deadline = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeLLM) ModelName() string           { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                { return nil }

// fakeStore is an in-memory object store.
type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	listErr  error
	fetchErr map[string]error
	storeErr error
}

func newFakeStore(objects map[string]string) *fakeStore {
	s := &fakeStore{objects: make(map[string][]byte), fetchErr: make(map[string]error)}
	for k, v := range objects {
		s.objects[k] = []byte(v)
	}
	return s
}

func (s *fakeStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var names []string
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeStore) Fetch(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fetchErr[name]; err != nil {
		return nil, err
	}
	data, ok := s.objects[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Store(_ context.Context, name string, data io.Reader) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = b
	return nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[name]
	return b, ok
}

// fakeExtractor returns file contents verbatim and records the paths it saw.
type fakeExtractor struct {
	mu    sync.Mutex
	paths []string
	// failOn makes extraction fail for files whose content contains the string.
	failOn string
}

func (f *fakeExtractor) SupportedMediaTypes() []domain.MediaType {
	return []domain.MediaType{domain.MediaTypePDF, domain.MediaTypeText}
}

func (f *fakeExtractor) Extract(_ context.Context, path string, _ domain.MediaType) (string, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if f.failOn != "" && strings.Contains(string(data), f.failOn) {
		return "", errors.New("corrupt document")
	}
	return string(data), nil
}

// fakePrompts serves a fixed template.
type fakePrompts struct {
	template string
	err      error
}

func (f *fakePrompts) Load(_ string) (string, error) { return f.template, f.err }
func (f *fakePrompts) Reload()                      {}

// fakeChunker splits on "|".
type fakeChunker struct{}

func (fakeChunker) Name() string { return "pipe" }

func (fakeChunker) Split(text string) []string {
	var out []string
	for _, part := range strings.Split(text, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package domain

// Metadata is the payload stored alongside every vector.
type Metadata struct {
	// Text is the chunk text the vector was computed from.
	Text string `json:"text"`

	// Source is the originating document name.
	Source string `json:"source"`
}

// IndexEntry is the persisted unit of the vector index.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// NewIndexEntry builds the entry for a chunk and its embedding.
func NewIndexEntry(c Chunk, vector []float32) IndexEntry {
	return IndexEntry{
		ID:       c.ID(),
		Vector:   vector,
		Metadata: Metadata{Text: c.Text, Source: c.Source},
	}
}

// QueryMatch is a single similarity query result.
// Matches are returned ordered by descending Score.
type QueryMatch struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

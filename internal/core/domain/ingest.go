package domain

// IngestOutcome is the result of ingesting one document.
// Exactly one of Chunks (on success) or Err is meaningful.
type IngestOutcome struct {
	// Document is the document name.
	Document string

	// Chunks is the number of index entries upserted.
	Chunks int

	// Err is the captured failure, nil on success.
	Err error
}

// OK reports whether the document was ingested.
func (o IngestOutcome) OK() bool {
	return o.Err == nil
}

// IngestReport is the fold over a corpus ingestion pass.
type IngestReport struct {
	// RunID identifies the ingestion pass in logs.
	RunID string

	// Outcomes holds one entry per attempted document, in listing order.
	Outcomes []IngestOutcome

	// Skipped lists documents whose media type was not accepted.
	Skipped []string

	// IndexSize is the number of entries in the vector index after the
	// pass, or -1 when the index could not be counted.
	IndexSize int
}

// Succeeded returns the outcomes without errors.
func (r *IngestReport) Succeeded() []IngestOutcome {
	var out []IngestOutcome
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes with errors.
func (r *IngestReport) Failed() []IngestOutcome {
	var out []IngestOutcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// TotalChunks sums the chunks upserted across successful documents.
func (r *IngestReport) TotalChunks() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Chunks
	}
	return total
}

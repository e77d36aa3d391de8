package domain

import "encoding/json"

// NoMatchesText is the answer returned when retrieval finds nothing.
const NoMatchesText = "No relevant information found in the provided context."

// StructuredAnswer is the response contract the generative model is asked to honour.
type StructuredAnswer struct {
	// Answer is the model's answer to the question.
	Answer string `json:"answer"`

	// RelevantDocuments lists the documents and chunks the answer used.
	RelevantDocuments []RelevantDocument `json:"relevant_documents"`
}

// RelevantDocument names a document the model relied on.
type RelevantDocument struct {
	Filename      string   `json:"filename"`
	MatchedChunks []string `json:"matched_chunks"`
}

// NoMatchesAnswer returns the sentinel answer for an empty retrieval.
func NoMatchesAnswer() StructuredAnswer {
	return TextAnswer(NoMatchesText)
}

// TextAnswer wraps free text in a StructuredAnswer with no relevant documents.
func TextAnswer(text string) StructuredAnswer {
	return StructuredAnswer{
		Answer:            text,
		RelevantDocuments: []RelevantDocument{},
	}
}

// MarshalJSON encodes the answer, always emitting relevant_documents as an array.
func (a StructuredAnswer) MarshalJSON() ([]byte, error) {
	type plain StructuredAnswer
	if a.RelevantDocuments == nil {
		a.RelevantDocuments = []RelevantDocument{}
	}
	return json.Marshal(plain(a))
}

// MarshalJSON encodes the document, always emitting matched_chunks as an array.
func (d RelevantDocument) MarshalJSON() ([]byte, error) {
	type plain RelevantDocument
	if d.MatchedChunks == nil {
		d.MatchedChunks = []string{}
	}
	return json.Marshal(plain(d))
}

// Package extractors turns stored documents into plain text.
//
// Each subpackage handles one media type. Registry dispatches to them and
// is the driven.TextExtractor the ingestion service is given.
package extractors

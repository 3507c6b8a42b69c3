package aisvc

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/voyago/voyago/core/document"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseExtraction decodes a model reply into an ExtractionResult. Markdown
// code fences around the JSON are tolerated; when no JSON can be recovered a
// zero-confidence result is returned along with the parse error.
func ParseExtraction(text string) (document.ExtractionResult, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result document.ExtractionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		if m := fencedJSON.FindStringSubmatch(text); m != nil {
			if ferr := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &result); ferr == nil {
				return result, nil
			}
		}
		return fallbackResult(), errors.Wrap(err, "parsing model reply")
	}
	return result, nil
}

// fallbackResult is returned when the model reply cannot be parsed; the
// document still completes, with zero confidence and explanatory notes.
func fallbackResult() document.ExtractionResult {
	return document.ExtractionResult{
		ExtractionConfidence: 0,
		ExtractedTours:       []document.ExtractedTour{},
		ProcessingNotes: []string{
			"AI processing failed - unable to parse tour information",
			"Document content may be unclear or in unsupported format",
			"Please check if the document contains valid tour information",
		},
	}
}

package suggestions

import "errors"

// Field names requested from the model.
const (
	FieldCategories = "categories"
	FieldTags       = "tags"
)

var (
	// ErrMalformedJSON is returned when the model output is not valid JSON.
	ErrMalformedJSON = errors.New("malformed JSON response")

	// ErrMissingField is returned when the requested field is absent or is
	// not an array.
	ErrMissingField = errors.New("missing suggestion field")
)

// ParsedSuggestions is the validated result of one model response.
type ParsedSuggestions struct {
	// Items are the accepted suggestions in response order, trimmed and
	// de-duplicated. len(Items) <= RequestedCount.
	Items []string `json:"items"`

	// RequestedCount is the number of suggestions asked for.
	RequestedCount int `json:"requested_count"`

	// Rejected lists elements that failed IsValidTag or were not strings.
	Rejected []string `json:"rejected,omitempty"`

	// Stripped reports whether a code fence was removed.
	Stripped bool `json:"stripped"`
}

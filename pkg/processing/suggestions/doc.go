// Package suggestions turns free-text model output into validated category
// and tag lists.
//
// Models are asked for a JSON object such as {"tags": ["Go", "Concurrency"]}
// and often wrap it in a Markdown code fence. ParseSuggestions strips the
// fence, decodes the object, and returns the accepted names along with any
// rejected ones:
//
//	parsed, err := suggestions.ParseSuggestions(text, suggestions.FieldTags, 3)
//	switch {
//	case errors.Is(err, suggestions.ErrMalformedJSON):
//	    // not JSON at all
//	case errors.Is(err, suggestions.ErrMissingField):
//	    // JSON without a "tags" array
//	}
//
// Names that are purely numeric ("2024") or contain no letters are never
// coerced; they are listed in Rejected for the caller to log.
package suggestions

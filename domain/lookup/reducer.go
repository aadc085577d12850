package lookup

const (
	NoSnippetText = "No result found"
	NoResultsText = "No relevant results found"
	ErrorPrefix   = "Error: "
)

// Reduce turns a lookup result into exactly one display string:
// the first candidate's snippet (or NoSnippetText when that candidate has
// none), NoResultsText for an empty success, and "Error: <message>" for a
// failure.
func Reduce(r Result) string {
	switch r.Outcome {
	case OutcomeFailed:
		return ErrorPrefix + r.Message
	case OutcomeFound, OutcomeEmpty:
		if len(r.Candidates) == 0 {
			return NoResultsText
		}
		return r.Candidates[0].SnippetOr(NoSnippetText)
	default:
		// zero-value results come from clients that never filled one in
		if r.Message != "" {
			return ErrorPrefix + r.Message
		}
		if len(r.Candidates) > 0 {
			return r.Candidates[0].SnippetOr(NoSnippetText)
		}
		return NoResultsText
	}
}

// Resolve reduces r and reports the outcome it was classified as
func Resolve(r Result) (string, Outcome) {
	text := Reduce(r)
	switch {
	case r.Outcome == OutcomeFailed, r.Outcome == "" && r.Message != "":
		return text, OutcomeFailed
	case len(r.Candidates) == 0:
		return text, OutcomeEmpty
	default:
		return text, OutcomeFound
	}
}

package domain

// SearchStrategy is one machine-oriented query derived from a natural
// language research question, with a human-readable justification.
type SearchStrategy struct {
	// Query is the search string sent to every provider.
	Query string `json:"query"`

	// Rationale explains what this strategy is trying to surface.
	Rationale string `json:"rationale"`

	// Topic is a short categorical label (a few words).
	Topic string `json:"topic"`
}

// Fallback rationale/topic used when strategy expansion is unavailable or
// fails; the aggregator must never receive zero strategies.
const (
	DirectSearchRationale = "Direct search."
	DirectSearchTopic     = "Direct Search"
)

// DirectStrategy wraps a research question verbatim as a single strategy.
func DirectStrategy(question string) SearchStrategy {
	return SearchStrategy{
		Query:     question,
		Rationale: DirectSearchRationale,
		Topic:     DirectSearchTopic,
	}
}

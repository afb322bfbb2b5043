package ai

// ParseResult is the outcome of running a model response through the parse
// strategies. Exactly one of Value or Err is set.
type ParseResult struct {
	// Strategy names the strategy that produced Value, or the last one tried.
	Strategy string
	Value    map[string]any
	Err      error
}

// OK reports whether a strategy accepted the response.
func (r ParseResult) OK() bool {
	return r.Err == nil && r.Value != nil
}

// ParseStrategy turns raw model output into a JSON object.
type ParseStrategy struct {
	Name  string
	Parse func(raw string) (map[string]any, error)
}

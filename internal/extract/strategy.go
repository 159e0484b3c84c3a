package extract

// Strategy is one named attempt at producing a field value. Strategies are
// arranged in ordered chains so the fallback order is explicit data rather
// than control flow.
type Strategy struct {
	Name string
	Fn   func() string
}

// Chain runs strategies in order and returns the first non-empty value along
// with the name of the strategy that produced it.
func Chain(strategies ...Strategy) (value, source string) {
	for _, s := range strategies {
		if v := s.Fn(); v != "" {
			return v, s.Name
		}
	}
	return "", ""
}

package sequencing

// CustomStrategy executes withdrawals in a user-specified ordered list of sources.
// Valid source names are the bucket names. If the sequence is invalid it falls back to standard.
// Forced RMDs and qualified HSA spending still come first.
type CustomStrategy struct {
	Sequence []string
}

func NewCustomStrategy(sequence []string) *CustomStrategy { return &CustomStrategy{Sequence: sequence} }

func (s *CustomStrategy) Name() string { return "custom" }

func (s *CustomStrategy) Plan(sources []WithdrawalSource, ctx StrategyContext) WithdrawalPlan {
	if !ValidSequence(s.Sequence) {
		std := NewStandardStrategy().Plan(sources, ctx)
		std.StrategyUsed = "custom->standard_fallback"
		std.Notes = append([]string{"invalid or empty custom sequence - falling back to standard"}, std.Notes...)
		return std
	}
	return planInOrder(s.Name(), s.Sequence, sources, ctx)
}

// ValidSequence reports whether every name is a known bucket and none repeats
func ValidSequence(sequence []string) bool {
	if len(sequence) == 0 {
		return false
	}
	allowed := map[string]bool{}
	for _, name := range standardOrder {
		allowed[name] = true
	}
	seen := map[string]bool{}
	for _, name := range sequence {
		if !allowed[name] || seen[name] {
			return false
		}
		seen[name] = true
	}
	return true
}

package hit

// Threshold is a confidence cutoff. Inclusive thresholds keep values equal to Min.
type Threshold struct {
	Min       float64
	Inclusive bool
}

// Canonical cutoffs used across the demo.
var (
	TagSuggestion   = Threshold{Min: 0.5}
	Autofill        = Threshold{Min: 0.4, Inclusive: true}
	PromptType      = Threshold{Min: 0.5}
	FeedbackField   = Threshold{Min: 0.5, Inclusive: true}
	RequestField    = Threshold{Min: 0.25, Inclusive: true}
	Autocomplete    = Threshold{Min: 0.001}
	SignificantLift = Threshold{Min: 1.2}
)

// Pass reports whether v clears the threshold.
func (t Threshold) Pass(v float64) bool {
	if t.Inclusive {
		return v >= t.Min
	}
	return v > t.Min
}

// Filter keeps hits whose $p clears the threshold. Input order is preserved.
func Filter(hits []Hit, t Threshold) []Hit {
	return FilterBy(hits, t, Hit.Probability)
}

// FilterBy keeps hits whose score clears the threshold.
func FilterBy(hits []Hit, t Threshold, score func(Hit) float64) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if t.Pass(score(h)) {
			out = append(out, h)
		}
	}
	return out
}

// Labels maps hits to their labels, skipping empty ones.
func Labels(hits []Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if l := h.Label(); l != "" {
			out = append(out, l)
		}
	}
	return out
}

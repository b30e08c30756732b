package quota

// Thresholds above which a cost-reduction suggestion is emitted.
const (
	recommendTotalCost   = 1.0
	recommendServiceCall = 50
)

// Recommendations derives cost-reduction suggestions from a usage snapshot.
// It is a pure function and never returns nil.
func Recommendations(u Usage) []string {
	out := []string{}
	if u.TotalCost > recommendTotalCost {
		out = append(out,
			"Consider enabling more aggressive caching",
			"Use template-based itineraries for common destinations",
		)
	}
	if u.Services[ServiceLLM].Calls > recommendServiceCall {
		out = append(out,
			"Switch to a cheaper LLM model for routine itineraries",
			"Reduce the completion token limit",
		)
	}
	places := u.Services[ServicePlaces].Calls + u.Services[ServiceAutocomplete].Calls
	if places > recommendServiceCall {
		out = append(out,
			"Cache place lookups more aggressively",
			"Use plain map links instead of place detail lookups",
		)
	}
	if u.Cache.Hits+u.Cache.Misses >= 20 && u.Cache.HitRate < 0.3 {
		out = append(out, "Cache hit rate is low; review cache TTLs")
	}
	return out
}

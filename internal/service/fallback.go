package service

// DefaultFallbackThreshold is the number of consecutive misunderstandings
// after which the call switches to the learner's native language
const DefaultFallbackThreshold = 2

// FallbackPolicy counts consecutive misunderstandings in a call.
// When sticky, a call that has escalated stays escalated even after the
// learner is understood again. Not safe for concurrent use; each call owns one.
type FallbackPolicy struct {
	threshold int
	sticky    bool
	failures  int
}

// NewFallbackPolicy creates a policy. A threshold <= 0 uses the default.
func NewFallbackPolicy(threshold int, sticky bool) *FallbackPolicy {
	if threshold <= 0 {
		threshold = DefaultFallbackThreshold
	}
	return &FallbackPolicy{threshold: threshold, sticky: sticky}
}

// OnFailure records a misunderstanding and reports whether to escalate
func (p *FallbackPolicy) OnFailure() bool {
	p.failures++
	return p.Escalated()
}

// OnSuccess resets the counter unless the policy is sticky and has escalated
func (p *FallbackPolicy) OnSuccess() {
	if p.sticky && p.Escalated() {
		return
	}
	p.failures = 0
}

// Escalated reports whether replies should use the native language
func (p *FallbackPolicy) Escalated() bool {
	return p.failures >= p.threshold
}

// Failures returns the current count of consecutive misunderstandings
func (p *FallbackPolicy) Failures() int {
	return p.failures
}

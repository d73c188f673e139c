package shared

// Gate outcome labels reported to a GateObserver.
const (
	OutcomeAllowed         = "allowed"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeMalformed       = "malformed"
	OutcomeMisconfigured   = "misconfigured"
	OutcomeInvalid         = "invalid"
	OutcomeNoRole          = "no_role"
	OutcomeDenied          = "denied"
	OutcomeError           = "error"
)

// GateObserver receives one observation per gate decision.
type GateObserver interface {
	ObserveGate(gate, outcome string)
}

// Observe reports to o when it is non-nil.
func Observe(o GateObserver, gate, outcome string) {
	if o != nil {
		o.ObserveGate(gate, outcome)
	}
}

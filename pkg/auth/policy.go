package auth

// FailoverPolicy decides whether a non-accepting outcome moves on to the next server.
type FailoverPolicy struct {
	OnException             bool
	OnAuthenticationFailure bool
}

// Continue reports whether the authenticator should try the next server after outcome.
// Accepted outcomes never continue.
func (p FailoverPolicy) Continue(outcome *Outcome) bool {
	switch {
	case outcome.IsException():
		return p.OnException
	case outcome.IsAuthenticationFailure():
		return p.OnAuthenticationFailure
	default:
		return false
	}
}

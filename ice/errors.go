package ice

import "errors"

var (
	errUnknownCredentials  = errors.New("ice: message-integrity check failed")
	errNoSuchLocalBase     = errors.New("ice: request arrived on an unknown local candidate")
	errAgentClosed         = errors.New("ice: agent is closed")
	errMissingUsername     = errors.New("ice: binding request missing USERNAME")
	errUsernameMismatch    = errors.New("ice: binding request USERNAME does not match local ufrag")
	errNotBindingRequest   = errors.New("ice: expected a Binding request")
)

// Package errs provides the error types returned to the callers of the
// node API and the mapping of protocol errors to them.
//
// Only trusted errors reach the caller with their own message. A handler
// either wraps an expected failure with NewTrusted, or returns the error of
// a protocol package as is and lets the Errors middleware pass it through
// FromProtocol. Anything else is logged and answered with a bare 500 so
// ledger and storage internals never leak to the caller.
package errs

import "errors"

// Response is the body written for a failed API call.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted carries an error whose message is safe to return to the caller
// together with the HTTP status to return it with.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. Handlers use
// it for expected failures such as a bad account name in the path.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the message of the wrapped
// error, which is both logged and returned to the caller.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives errors.Is access to the protocol error underneath, so a
// trusted ErrUnauthorized still matches auth.ErrUnauthorized.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if a Trusted error exists in the chain.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the Trusted error in the chain or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

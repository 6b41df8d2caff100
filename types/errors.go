package types

// Error is the structured failure surface of the payment engine. Every
// upstream failure is wrapped into one of these and propagated to the
// caller; nothing is swallowed or retried within a negotiation.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error codes, one per failure kind of the negotiation and polling flow.
const (
	ErrInvalidChallenge   = "INVALID_CHALLENGE"
	ErrSponsorUnavailable = "SPONSOR_UNAVAILABLE"
	ErrRelayRejected      = "RELAY_REJECTED"
	ErrSettlementFailed   = "SETTLEMENT_FAILED"
	ErrJobNotFound        = "JOB_NOT_FOUND"
	ErrJobFailed          = "JOB_FAILED"
	ErrJobTimeout         = "JOB_TIMEOUT"
)

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed error with the given code and upstream reason.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds a typed error around an underlying cause.
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code string) bool {
	for err != nil {
		if typed, ok := err.(*Error); ok && typed.Code == code {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
	ErrExtraction   = errors.New("extraction failed")
	ErrUpstream     = errors.New("upstream failure")
	ErrStorage      = errors.New("storage failure")
	ErrUnavailable  = errors.New("ai not configured")
)

// transientErr marks an upstream failure as retryable (timeout, rate limit,
// 5xx). Non-transient upstream failures (auth, quota, malformed input) are
// plain ErrUpstream wraps and must not be retried.
type transientErr struct {
	err error
}

func (e transientErr) Error() string {
	return e.err.Error()
}

func (e transientErr) Unwrap() error {
	return e.err
}

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientErr{err: err}
}

func IsTransient(err error) bool {
	var t transientErr
	return errors.As(err, &t)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

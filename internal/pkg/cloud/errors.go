package cloud

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnsupported  = errors.New("operation not supported by provider")
	ErrConflict     = errors.New("connection id already in use")
	ErrAuth         = errors.New("provider rejected connection")
	ErrInvalidInput = errors.New("invalid credentials")
)

// Kind classifies a manager error by its observable outcome.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindUnsupported
	KindConflict
	KindAuth
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindUnsupported:
		return "unsupported"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	default:
		return "provider"
	}
}

// KindOf maps err to its Kind. Errors that match no sentinel are transient
// provider failures.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAuth), errors.Is(err, ErrInvalidInput):
		return KindAuth
	default:
		return KindProvider
	}
}

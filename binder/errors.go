package binder

import "errors"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrInvalidQuery         = errors.New("invalid query parameter")
	ErrInvalidPath          = errors.New("invalid path parameter")
	ErrMissingContentType   = errors.New("missing content type")
	ErrBodyTooLarge         = errors.New("request body too large")
)

// IsBindingError reports whether err came from one of the binders, meaning
// the request itself is malformed.
func IsBindingError(err error) bool {
	for _, target := range []error{
		ErrUnsupportedMediaType, ErrInvalidJSON, ErrInvalidQuery,
		ErrInvalidPath, ErrMissingContentType, ErrBodyTooLarge,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

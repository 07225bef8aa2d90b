package ktex

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMagic      = errors.New("not a valid container")
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	ErrUnknownVersion    = errors.New("unrecognized version")
	ErrInvalidDimensions = errors.New("invalid dimensions")
	ErrTruncated         = errors.New("truncated data")
)

// FormatError reports a structurally invalid container. Path is empty until
// a caller that knows the file attaches it with WithPath.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "ktex: " + e.Err.Error()
	}
	return fmt.Sprintf("ktex: %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErrorf(sentinel error, format string, args ...any) error {
	return &FormatError{Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}

// WithPath attaches path to a FormatError in err's chain. Other errors are
// returned unchanged.
func WithPath(err error, path string) error {
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Path != "" {
		return err
	}
	return &FormatError{Path: path, Err: fe.Err}
}

// IsFormatError reports whether err is, or wraps, a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

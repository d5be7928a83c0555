package format

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is matched by every *UnsupportedFormatError via errors.Is.
var ErrUnsupportedFormat = errors.New("unsupported format")

// UnsupportedFormatError reports an extension token missing from the registry.
type UnsupportedFormatError struct {
	Token     string
	Supported []string
}

// Error enumerates the accepted tokens.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("the given file extension (%s) is not supported, accepted file extensions are [%s]",
		e.Token, strings.Join(e.Supported, " "))
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

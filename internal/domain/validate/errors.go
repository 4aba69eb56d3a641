package validate

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalid matches any FieldErrors via errors.Is.
var ErrInvalid = errors.New("validation failed")

// FieldErrors maps a form field to its message. It is returned instead of
// sending anything to the backend.
type FieldErrors map[string]string

// Error renders the fields in name order.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Is makes FieldErrors match ErrInvalid.
func (fe FieldErrors) Is(target error) bool { return target == ErrInvalid }

// Field returns the message for name, or "".
func (fe FieldErrors) Field(name string) string { return fe[name] }

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

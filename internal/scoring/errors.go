package scoring

import "fmt"

// FormatError reports a receipt field whose value could not be parsed
// as the number, date or time it is supposed to hold.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

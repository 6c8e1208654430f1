package journey

import (
	"fmt"
	"reflect"
)

// AssertionError is returned by the check helpers.
type AssertionError struct {
	Message  string
	Actual   any
	Expected any
}

func (e *AssertionError) Error() string {
	return e.Message
}

// Assert fails with msg unless cond holds.
func Assert(cond bool, msg string) error {
	if cond {
		return nil
	}
	if msg == "" {
		msg = "The expression evaluated to a falsy value"
	}
	return &AssertionError{Message: msg, Actual: false, Expected: true}
}

// Equal fails unless actual and expected are deeply equal.
func Equal(actual, expected any) error {
	if reflect.DeepEqual(actual, expected) {
		return nil
	}
	return &AssertionError{
		Message:  fmt.Sprintf("Expected values to be strictly equal:\n\n%#v !== %#v\n", actual, expected),
		Actual:   actual,
		Expected: expected,
	}
}

package journey

import (
	"fmt"
	"strings"
)

// Policy decides what a step failure does to the rest of the journey.
type Policy string

const (
	// Hard failures stop the journey and fail it.
	Hard Policy = "HARD"
	// Soft failures fail the journey but later steps still run.
	Soft Policy = "SOFT"
	// Optional failures are logged and otherwise ignored.
	Optional Policy = "OPTIONAL"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToUpper(strings.TrimSpace(s))); p {
	case Hard, Soft, Optional:
		return p, nil
	}
	return "", fmt.Errorf("unknown step policy %q", s)
}

func (p Policy) String() string { return string(p) }

package directory

import (
	"errors"
	"strings"
)

var ErrIncompleteName = errors.New("please provide both first and last name")

// SplitFullName resolves a creation-flow "First Last" lookup string: the
// first token is the first name, the remainder joined is the last name.
func SplitFullName(full string) (first, last string, err error) {
	names := strings.Fields(strings.TrimSpace(full))
	if len(names) < 2 {
		return "", "", ErrIncompleteName
	}
	return names[0], strings.Join(names[1:], " "), nil
}

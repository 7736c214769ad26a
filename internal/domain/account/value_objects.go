package account

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidUsername = errors.New("invalid username format")

var usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,31}$`)

// Username is the stable identity of an account.
type Username struct {
	value string
}

func NewUsername(s string) (Username, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !usernameRegex.MatchString(s) {
		return Username{}, ErrInvalidUsername
	}
	return Username{value: s}, nil
}

func (u Username) Value() string {
	return u.value
}

func (u Username) String() string {
	return u.value
}

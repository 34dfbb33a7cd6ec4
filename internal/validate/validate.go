package validate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Result is the outcome of a single field check. Message is empty when Valid.
type Result struct {
	Valid   bool
	Message string
}

var ok = Result{Valid: true}

func fail(msg string) Result {
	return Result{Message: msg}
}

const (
	maxEmailLength    = 254 // RFC 5321
	minPasswordLength = 8
	maxPasswordLength = 128
)

// Email checks that s looks like local@domain.tld. It does not try to accept
// every RFC 5322 address, only to stop obvious mistakes before a request is sent.
func Email(s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail("Email is required")
	}
	if len(s) > maxEmailLength {
		return fail("Email is too long")
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return fail("Invalid email format")
	}

	local, domain, found := strings.Cut(s, "@")
	if !found || local == "" || strings.Contains(domain, "@") {
		return fail("Invalid email format")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return fail("Invalid email format")
	}
	for _, label := range labels {
		if label == "" {
			return fail("Invalid email format")
		}
	}
	return ok
}

// Password enforces the registration policy.
func Password(s string) Result {
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return fail("Password is required")
	case n < minPasswordLength:
		return fail("Password must be at least 8 characters long")
	case n > maxPasswordLength:
		return fail("Password is too long")
	}
	return ok
}

// LoginPassword only requires a value. Login must not reveal which strength
// rule a stored password fails.
func LoginPassword(s string) Result {
	if s == "" {
		return fail("Password is required")
	}
	return ok
}

// PasswordsMatch checks the registration confirmation field.
func PasswordsMatch(password, confirm string) Result {
	if password != confirm {
		return fail("Passwords don't match")
	}
	return ok
}

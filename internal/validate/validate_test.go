package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"", false},
		{"   ", false},
		{"userexample.com", false},
		{"@example.com", false},
		{"user@example", false},
		{"user@.com", false},
		{"user@example.", false},
		{"user@@example.com", false},
		{"user@exa mple.com", false},
		{"a@b@c.com", false},
		{strings.Repeat("a", 250) + "@example.com", false},
	}
	for _, tt := range tests {
		got := Email(tt.in)
		assert.Equal(t, tt.valid, got.Valid, "Email(%q)", tt.in)
		if !tt.valid {
			assert.NotEmpty(t, got.Message, "Email(%q) should explain", tt.in)
		}
	}
}

func TestEmail_NoAtOrNoDotIsInvalid(t *testing.T) {
	inputs := []string{"plain", "user.example.com", "user@localhost", "x@y", "a.b.c", "@", "@."}
	for _, in := range inputs {
		assert.False(t, Email(in).Valid, "Email(%q)", in)
	}
}

func TestPassword(t *testing.T) {
	assert.Equal(t, "Password is required", Password("").Message)
	assert.Equal(t, "Password must be at least 8 characters long", Password("short").Message)
	assert.True(t, Password("hunter22").Valid)
	assert.True(t, Password("pässwörd").Valid, "length counts characters, not bytes")
	assert.Equal(t, "Password is too long", Password(strings.Repeat("x", 129)).Message)
}

func TestLoginPassword(t *testing.T) {
	assert.False(t, LoginPassword("").Valid)
	assert.True(t, LoginPassword("a").Valid, "login never applies the strength policy")
}

func TestPasswordsMatch(t *testing.T) {
	assert.True(t, PasswordsMatch("hunter22", "hunter22").Valid)
	got := PasswordsMatch("hunter22", "hunter23")
	assert.False(t, got.Valid)
	assert.Equal(t, "Passwords don't match", got.Message)
}

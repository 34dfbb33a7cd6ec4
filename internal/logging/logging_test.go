package logging

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	values := url.Values{
		"email":             {"user@example.com"},
		"password":          {"hunter22"},
		"einvoice_password": {"s3cret"},
		"csrf_token":        {"abc"},
		"title":             {"Coffee"},
	}
	got := Redact(values)

	assert.Equal(t, "csrf_token=[REDACTED] einvoice_password=[REDACTED] email=user@example.com password=[REDACTED] title=Coffee", got)
	assert.NotContains(t, got, "hunter22")
	assert.NotContains(t, got, "s3cret")
}

func TestIsSensitive(t *testing.T) {
	assert.True(t, IsSensitive("Password"))
	assert.True(t, IsSensitive("api_key"))
	assert.True(t, IsSensitive("client_secret"))
	assert.False(t, IsSensitive("einvoice_username"))
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("loud", &bytes.Buffer{})
	assert.Error(t, err)
}

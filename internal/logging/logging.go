package logging

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels lists the accepted --log-level values.
var Levels = []string{"debug", "info", "warn", "error"}

// New builds a console logger writing to w at the named level.
func New(level string, w io.Writer) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", level, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

const redacted = "[REDACTED]"

var sensitiveKeys = []string{"password", "token", "secret", "key"}

// IsSensitive reports whether a field name looks like it holds a credential.
func IsSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, k := range sensitiveKeys {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// Redact renders form values for a log line with credential values replaced.
func Redact(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := strings.Join(values[k], ",")
		if IsSensitive(k) {
			v = redacted
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

// Form is a zap field carrying redacted form values.
func Form(values url.Values) zap.Field {
	return zap.String("form", Redact(values))
}

package endpoint

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

const maxErrorBody = 400

// StatusError is a non-2xx backend reply. Body is already redacted.
type StatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Backend, e.StatusCode, e.Body)
}

// NewStatusError drains resp.Body into a StatusError, scrubbing secret.
func NewStatusError(backend string, resp *http.Response, secret string) error {
	rb, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if readErr != nil {
		return fmt.Errorf("%s status %d and read body failed: %v", backend, resp.StatusCode, readErr)
	}
	return &StatusError{
		Backend:    backend,
		StatusCode: resp.StatusCode,
		Body:       Truncate(RedactSecrets(strings.TrimSpace(string(rb)), secret), maxErrorBody),
	}
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;&]+)`)
	keyParamRE    = regexp.MustCompile(`([?&]key=)[^&\s"']+`)
)

func RedactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = keyParamRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}

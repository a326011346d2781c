package validators

import (
	"errors"
	"strings"
)

var ErrMissingToken = errors.New("missing bearer token")

// ParseBearerToken extracts the credential from an Authorization header value.
func ParseBearerToken(header string) (string, error) {
	raw := strings.TrimSpace(header)
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(raw[7:])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

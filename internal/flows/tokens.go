package flows

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goGateway/credential"
)

var (
	// ErrMissingAccessToken is returned when a token response carries no access token.
	ErrMissingAccessToken = errors.New("flows: token response has no access token")
	// ErrMissingRefreshToken is returned when a login response carries no refresh token.
	ErrMissingRefreshToken = errors.New("flows: token response has no refresh token")
	// ErrNoCredential is returned when renewal is attempted without a stored pair.
	ErrNoCredential = errors.New("flows: no stored credential")
)

// TokenFields names the JSON fields of token requests and responses.
type TokenFields struct {
	Access  string
	Refresh string
}

func (f TokenFields) withDefaults() TokenFields {
	if f.Access == "" {
		f.Access = "access"
	}
	if f.Refresh == "" {
		f.Refresh = "refresh"
	}
	return f
}

// EncodeRefreshRequest builds the renewal request body {"<refresh>": token}.
func EncodeRefreshRequest(fields TokenFields, refreshToken string) ([]byte, error) {
	fields = fields.withDefaults()
	return json.Marshal(map[string]string{fields.Refresh: refreshToken})
}

// DecodePair reads a token pair out of a JSON response body. An absent refresh
// token falls back to fallbackRefresh; an absent access token is an error.
// Whitespace-only tokens count as absent.
func DecodePair(body []byte, fields TokenFields, fallbackRefresh string) (credential.Pair, error) {
	fields = fields.withDefaults()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return credential.Pair{}, fmt.Errorf("flows: decode token response: %w", err)
	}

	access, err := stringField(raw, fields.Access)
	if err != nil {
		return credential.Pair{}, err
	}
	refresh, err := stringField(raw, fields.Refresh)
	if err != nil {
		return credential.Pair{}, err
	}

	if strings.TrimSpace(access) == "" {
		return credential.Pair{}, ErrMissingAccessToken
	}
	if strings.TrimSpace(refresh) == "" {
		refresh = fallbackRefresh
	}
	if strings.TrimSpace(refresh) == "" {
		return credential.Pair{}, ErrMissingRefreshToken
	}
	return credential.Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func stringField(raw map[string]json.RawMessage, name string) (string, error) {
	value, ok := raw[name]
	if !ok || string(value) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", fmt.Errorf("flows: decode field %q: %w", name, err)
	}
	return s, nil
}

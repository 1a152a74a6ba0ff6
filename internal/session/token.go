package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kakeibo/internal/core"
)

// ErrMalformedToken indicates the identity assertion is not a decodable JWT.
var ErrMalformedToken = errors.New("malformed identity token")

// DecodeIDToken extracts the identity claims from a signed identity
// assertion. Only the payload segment is base64url-decoded; the signature is
// NOT verified here. The trust boundary of this decode is "readable claims
// for UI display" — every write against the remote store must be
// authenticated independently by the server.
func DecodeIDToken(idToken string) (core.Identity, error) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return core.Identity{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var identity core.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return core.Identity{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if err := identity.Validate(); err != nil {
		return core.Identity{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return identity, nil
}

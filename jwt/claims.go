package jwt

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Provider links an identity to an external login provider.
type Provider struct {
	Name   string `json:"name"`
	OpenID string `json:"openid"`
}

// Claims is the decoded token payload: identity, roles, provider links and
// the registered claims (exp, iat, iss, aud, ...).
type Claims struct {
	ID        string     `json:"_id,omitempty"`
	Username  string     `json:"username,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	Providers []Provider `json:"providers,omitempty"`
	jwt.RegisteredClaims

	// exp as found in the payload, before NumericDate truncates it.
	rawExp    float64
	hasRawExp bool
}

// UnmarshalJSON decodes the payload and keeps the exact exp value alongside
// ExpiresAt, which golang-jwt rounds to jwt.TimePrecision.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type payload Claims
	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	var exp struct {
		Exp json.RawMessage `json:"exp"`
	}
	if err := json.Unmarshal(data, &exp); err != nil {
		return err
	}
	decoded.rawExp, decoded.hasRawExp = 0, false
	if len(exp.Exp) > 0 {
		if f, err := strconv.ParseFloat(string(exp.Exp), 64); err == nil {
			decoded.rawExp, decoded.hasRawExp = f, true
		}
	}

	*c = Claims(decoded)
	return nil
}

// HasRole reports whether role appears in c.Roles.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Roles, role)
}

// ExpiresAtMillis returns the first millisecond since epoch at which the
// token is expired: a time t in milliseconds is still valid while
// t < ms, which is t < exp*1000 for fractional exp values too. ok is false
// when the token carries no exp claim.
func (c *Claims) ExpiresAtMillis() (ms int64, ok bool) {
	if c == nil || c.ExpiresAt == nil {
		return 0, false
	}
	// The payload value wins unless ExpiresAt was changed after decoding.
	if c.hasRawExp && int64(math.Floor(c.rawExp)) == c.ExpiresAt.Unix() {
		return int64(math.Ceil(c.rawExp * 1000)), true
	}
	return c.ExpiresAt.UnixMilli(), true
}

package client

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Headers returns the HTTP headers that present the credential. A basic
// credential of the form "user:password" is base64-encoded; any other value
// is assumed to be encoded already.
func (c Credential) Headers() http.Header {
	h := http.Header{}
	switch c.Kind {
	case CredentialBearer:
		h.Set("Authorization", "Bearer "+c.Value)
	case CredentialBasic:
		token := c.Value
		if strings.Contains(token, ":") {
			token = base64.StdEncoding.EncodeToString([]byte(token))
		}
		h.Set("Authorization", "Basic "+token)
	}
	return h
}

// bearerExpiry returns the exp claim of a bearer credential that happens to
// be a JWT. The signature is not verified; the endpoint owns validation.
func bearerExpiry(c Credential) (time.Time, bool) {
	if c.Kind != CredentialBearer || strings.Count(c.Value, ".") != 2 {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Value, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

package socket

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the locally stored identity used for the channel handshake.
type Credentials struct {
	UserID string
	Token  string
}

// AuthPayload is sent to the server at connect time. Both fields are omitted
// from the JSON entirely when no well-formed credential is available; the
// server treats the absence as an anonymous connection.
type AuthPayload struct {
	UserID string `json:"userId,omitempty"`
	Token  string `json:"token,omitempty"`
}

// ValidToken reports whether raw looks like a usable bearer credential.
// Empty strings and the stringified sentinels some storage layers leak
// ("null", "undefined") are rejected, as is anything that does not parse as
// a JWT. The signature is not verified here; that is the server's job. The
// client only refuses to send garbage.
func ValidToken(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" || raw == "undefined" {
		return false
	}
	_, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	return err == nil
}

// BuildAuthPayload sanitises credentials into the handshake payload. The
// user id is only included alongside a valid token; an invalid token yields
// an empty payload with both fields omitted.
func BuildAuthPayload(creds Credentials) AuthPayload {
	if !ValidToken(creds.Token) {
		return AuthPayload{}
	}
	return AuthPayload{
		UserID: strings.TrimSpace(creds.UserID),
		Token:  strings.TrimSpace(creds.Token),
	}
}

// Package token implements the signed bearer-token primitive used for
// sessions: base64url(claim) + "." + base64url(HMAC-SHA256(secret, claim)),
// padding stripped. The codec guarantees authenticity and integrity only;
// freshness policy (if any) belongs to the caller via the issued-at claim.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
)

// claimSep joins the claim fields. It may not appear inside any field;
// student ids are hex and emails cannot contain '|'.
const claimSep = "|"

// Codec signs and verifies compact bearer tokens.
type Codec struct {
	secret []byte
}

// NewCodec builds a codec around the process-wide signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Sign returns the token for claim.
func (c *Codec) Sign(claim string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(claim))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	payload := base64.RawURLEncoding.EncodeToString([]byte(claim))
	return payload + "." + sig
}

// Verify recovers the claim from a token. It reports ok=false for any
// malformed structure, decode failure, or signature mismatch; the signature
// comparison is constant time.
func (c *Codec) Verify(tok string) (claim string, ok bool) {
	payload, sig, found := strings.Cut(tok, ".")
	if !found {
		return "", false
	}
	raw, err := decodeURLB64(payload)
	if err != nil {
		return "", false
	}
	got, err := decodeURLB64(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(raw)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return "", false
	}
	return string(raw), true
}

// decodeURLB64 accepts base64url with or without padding.
func decodeURLB64(s string) ([]byte, error) {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return base64.URLEncoding.DecodeString(s)
}

// Claims is the session claim layout: studentID | email | issuedAt
// (epoch seconds), joined with claimSep.
type Claims struct {
	StudentID string
	Email     string
	IssuedAt  int64
}

// Encode renders the claim string for signing.
func (cl Claims) Encode() string {
	return cl.StudentID + claimSep + cl.Email + claimSep + strconv.FormatInt(cl.IssuedAt, 10)
}

// ParseClaims splits a verified claim string back into its fields. Claims
// with the wrong field count or a non-numeric issued-at are rejected.
func ParseClaims(raw string) (Claims, bool) {
	parts := strings.Split(raw, claimSep)
	if len(parts) != 3 {
		return Claims{}, false
	}
	issued, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Claims{}, false
	}
	if parts[0] == "" || parts[1] == "" {
		return Claims{}, false
	}
	return Claims{StudentID: parts[0], Email: parts[1], IssuedAt: issued}, true
}

package token

import (
	"strings"
	"testing"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	c := NewCodec("test-secret")

	claims := []string{
		"64f0c2a9b3e4d5f6a7b8c9d0|alice@emory.edu|1700000000",
		"",
		"just-one-field",
		"unicode: héllo wörld",
	}
	for _, claim := range claims {
		tok := c.Sign(claim)
		got, ok := c.Verify(tok)
		if !ok {
			t.Errorf("Verify(Sign(%q)) not ok", claim)
			continue
		}
		if got != claim {
			t.Errorf("round trip: got %q, want %q", got, claim)
		}
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	c := NewCodec("test-secret")
	tok := c.Sign("64f0c2a9b3e4d5f6a7b8c9d0|alice@emory.edu|1700000000")

	// Flip a single bit in every byte position; no variant may verify.
	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		mutated := []byte(tok)
		mutated[i] ^= 0x01
		if _, ok := c.Verify(string(mutated)); ok {
			t.Errorf("bit-flipped token at byte %d verified", i)
		}
	}
}

func TestVerify_Malformed(t *testing.T) {
	c := NewCodec("test-secret")

	cases := []string{
		"",
		"no-separator",
		"!!!.###",       // invalid base64 on both sides
		"YWJj",          // payload only
		".",             // empty payload and signature
		"YWJj.",         // empty signature
		c.Sign("x") + ".extra",
	}
	for _, tok := range cases {
		if _, ok := c.Verify(tok); ok {
			t.Errorf("Verify(%q) unexpectedly ok", tok)
		}
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	tok := NewCodec("secret-a").Sign("id|mail@emory.edu|1")
	if _, ok := NewCodec("secret-b").Verify(tok); ok {
		t.Fatal("token signed with a different secret verified")
	}
}

func TestSign_StripsPadding(t *testing.T) {
	c := NewCodec("test-secret")
	tok := c.Sign("id|mail@emory.edu|1")
	if strings.Contains(tok, "=") {
		t.Fatalf("token should strip padding: %q", tok)
	}
	// A re-padded payload must still verify (legacy tokens carried padding).
	payload, sig, _ := strings.Cut(tok, ".")
	for len(payload)%4 != 0 {
		payload += "="
	}
	if _, ok := c.Verify(payload + "." + sig); !ok {
		t.Fatal("padded payload did not verify")
	}
}

func TestParseClaims(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Claims
		ok   bool
	}{
		{
			name: "valid",
			raw:  "abc|alice@emory.edu|1700000000",
			want: Claims{StudentID: "abc", Email: "alice@emory.edu", IssuedAt: 1700000000},
			ok:   true,
		},
		{name: "too few fields", raw: "abc|alice@emory.edu", ok: false},
		{name: "too many fields", raw: "a|b|c|1700000000", ok: false},
		{name: "non-numeric issued-at", raw: "abc|alice@emory.edu|yesterday", ok: false},
		{name: "empty id", raw: "|alice@emory.edu|1", ok: false},
		{name: "empty email", raw: "abc||1", ok: false},
		{name: "empty", raw: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseClaims(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("claims: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClaims_EncodeParseRoundTrip(t *testing.T) {
	cl := Claims{StudentID: "64f0c2a9b3e4d5f6a7b8c9d0", Email: "bob@emory.edu", IssuedAt: 1712345678}
	got, ok := ParseClaims(cl.Encode())
	if !ok {
		t.Fatal("ParseClaims(Encode()) not ok")
	}
	if got != cl {
		t.Errorf("round trip: got %+v, want %+v", got, cl)
	}
}

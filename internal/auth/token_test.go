package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testAccount() *model.Account {
	return &model.Account{ID: "8d3c2f9e-1a7b-4c55-9f0e-2b6d7e8a9c10", Email: "a@x.com", Username: "@alice"}
}

func TestIssueTokens_ProducesDistinctPair(t *testing.T) {
	issuer := NewTokenIssuer(testKey, 0)

	pair, err := issuer.IssueTokens(testAccount())
	if err != nil {
		t.Fatalf("IssueTokens error = %v", err)
	}
	if pair.SessionToken == "" || pair.RefreshToken == "" {
		t.Fatal("tokens must not be empty")
	}
	if pair.SessionToken == pair.RefreshToken {
		t.Error("session and refresh tokens must differ")
	}

	again, _ := issuer.IssueTokens(testAccount())
	if again.SessionToken == pair.SessionToken || again.RefreshToken == pair.RefreshToken {
		t.Error("each issuance must produce a new pair")
	}
}

func TestIssueTokens_RefreshTokenShape(t *testing.T) {
	pair, err := NewTokenIssuer(testKey, 0).IssueTokens(testAccount())
	if err != nil {
		t.Fatalf("IssueTokens error = %v", err)
	}

	if len(pair.RefreshToken) != 25+36 {
		t.Fatalf("refresh token length = %d, want 61", len(pair.RefreshToken))
	}
	for _, r := range pair.RefreshToken[:25] {
		if !strings.ContainsRune(refreshTokenAlphabet, r) {
			t.Errorf("unexpected character %q in random part", r)
		}
	}
}

func TestIssueTokens_ClaimsCarryIDAndEmail(t *testing.T) {
	issuer := NewTokenIssuer(testKey, 0)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	pair, err := issuer.IssueTokens(testAccount())
	if err != nil {
		t.Fatalf("IssueTokens error = %v", err)
	}

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(pair.SessionToken, claims)
	if err != nil {
		t.Fatalf("ParseUnverified error = %v", err)
	}
	if claims.Subject != testAccount().ID || claims.Email != "a@x.com" {
		t.Errorf("claims = %+v", claims)
	}
	if got := claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time); got != 2*time.Hour {
		t.Errorf("lifetime = %v, want 2h", got)
	}
}

func TestIssueTokens_MissingKeyFails(t *testing.T) {
	issuer := NewTokenIssuer(nil, 0)

	if _, err := issuer.IssueTokens(testAccount()); err != ErrSigningKeyMissing {
		t.Errorf("IssueTokens error = %v, want ErrSigningKeyMissing", err)
	}
	if issuer.ValidateStructure("a.b.c") {
		t.Error("ValidateStructure must fail without a key")
	}
	if err := issuer.CheckStructure("a.b.c"); err != ErrSigningKeyMissing {
		t.Errorf("CheckStructure error = %v, want ErrSigningKeyMissing", err)
	}
}

func TestCheckStructure_InvalidToken(t *testing.T) {
	issuer := NewTokenIssuer(testKey, 0)

	if err := issuer.CheckStructure("a.b.c"); err != ErrInvalidSessionToken {
		t.Errorf("CheckStructure error = %v, want ErrInvalidSessionToken", err)
	}
}

func TestValidateStructure(t *testing.T) {
	issuer := NewTokenIssuer(testKey, 0)
	pair, _ := issuer.IssueTokens(testAccount())

	expiredIssuer := NewTokenIssuer(testKey, time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiredIssuer.IssueTokens(testAccount())

	otherKey, _ := NewTokenIssuer([]byte("another-key-another-key-another!!"), 0).IssueTokens(testAccount())

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "x"}).SignedString(testKey)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"有効なトークン", pair.SessionToken, true},
		{"期限切れでも構造は有効", expired.SessionToken, true},
		{"別の鍵で署名", otherKey.SessionToken, false},
		{"alg=none", none, false},
		{"HS512への置き換え", hs512, false},
		{"空文字列", "", false},
		{"JWTでない文字列", "not-a-token", false},
		{"リフレッシュトークン", pair.RefreshToken, false},
		{"改ざんされたペイロード", tamper(pair.SessionToken), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := issuer.ValidateStructure(tt.token); got != tt.want {
				t.Errorf("ValidateStructure = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSessionToken_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(testKey, time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := issuer.IssueTokens(testAccount())

	if _, err := NewTokenIssuer(testKey, 0).ParseSessionToken(expired.SessionToken); err == nil {
		t.Error("expired token must be rejected")
	}
}

func TestParseSessionToken_ReturnsSubject(t *testing.T) {
	issuer := NewTokenIssuer(testKey, 0)
	pair, _ := issuer.IssueTokens(testAccount())

	claims, err := issuer.ParseSessionToken(pair.SessionToken)
	if err != nil {
		t.Fatalf("ParseSessionToken error = %v", err)
	}
	if claims.Subject != testAccount().ID {
		t.Errorf("Subject = %q", claims.Subject)
	}

	sub, err := issuer.SubjectOf(pair.SessionToken)
	if err != nil || sub != testAccount().ID {
		t.Errorf("SubjectOf = %q, %v", sub, err)
	}
}

// tamper はペイロード部の1文字を書き換える。
func tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || len(parts[1]) == 0 {
		return token
	}
	b := []byte(parts[1])
	if b[0] == 'A' {
		b[0] = 'B'
	} else {
		b[0] = 'A'
	}
	parts[1] = string(b)
	return strings.Join(parts, ".")
}

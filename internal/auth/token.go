package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

const (
	// DefaultSessionTokenTTL はセッショントークンの既定の有効期間。
	DefaultSessionTokenTTL = 2 * time.Hour

	refreshRandomLength  = 25
	refreshTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	signingAlgorithm     = "HS256"
)

var (
	// ErrSigningKeyMissing は署名鍵が設定されていない場合のエラー。
	ErrSigningKeyMissing = errors.New("session token signing key is not configured")
	// ErrInvalidSessionToken はセッショントークンの検証に失敗した場合のエラー。
	ErrInvalidSessionToken = errors.New("session token is not valid")
)

// Claims はセッショントークンのクレーム。subjectにアカウントIDを持つ。
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// TokenPair はセッショントークンとリフレッシュトークンの組。
type TokenPair struct {
	SessionToken string
	RefreshToken string
}

// TokenIssuer はHS256署名のセッショントークンと不透明なリフレッシュトークンを発行する。
// 署名鍵は生成時に渡され、以後変更されない。
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。ttlが0以下の場合は既定値を使う。
func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTokenTTL
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &TokenIssuer{key: k, ttl: ttl, now: time.Now}
}

// IssueTokens はアカウントに対する新しいトークン対を発行する。
func (i *TokenIssuer) IssueTokens(account *model.Account) (TokenPair, error) {
	if len(i.key) == 0 {
		return TokenPair{}, ErrSigningKeyMissing
	}
	if account == nil || account.ID == "" {
		return TokenPair{}, errors.New("account id is required to issue tokens")
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
		Email: account.Email,
	}

	session, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign session token: %w", err)
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{SessionToken: session, RefreshToken: refresh}, nil
}

// ValidateStructure は署名とアルゴリズム（HS256のみ）を検証する。有効期限は検証しない。
// 不正な入力に対しては常にfalseを返す。
func (i *TokenIssuer) ValidateStructure(token string) bool {
	return i.CheckStructure(token) == nil
}

// CheckStructure はValidateStructureと同じ検証を行い、失敗理由を返す。
// 署名鍵が未設定の場合はErrSigningKeyMissing、それ以外の失敗はErrInvalidSessionToken。
func (i *TokenIssuer) CheckStructure(token string) error {
	_, err := i.parse(token, jwt.WithoutClaimsValidation())
	return err
}

// ParseSessionToken は署名・アルゴリズム・有効期限を検証し、クレームを返す。
func (i *TokenIssuer) ParseSessionToken(token string) (*Claims, error) {
	claims, err := i.parse(token, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

// SubjectOf は有効期限を無視して署名検証済みトークンのsubjectを返す。
func (i *TokenIssuer) SubjectOf(token string) (string, error) {
	claims, err := i.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *TokenIssuer) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	if len(i.key) == 0 {
		return nil, ErrSigningKeyMissing
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidSessionToken
	}

	opts = append(opts, jwt.WithValidMethods([]string{signingAlgorithm}))
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSessionToken
	}
	return claims, nil
}

// newRefreshToken は英大文字と数字25文字にUUIDを連結したトークンを生成する。
func newRefreshToken() (string, error) {
	var b strings.Builder
	b.Grow(refreshRandomLength + 36)

	max := big.NewInt(int64(len(refreshTokenAlphabet)))
	for i := 0; i < refreshRandomLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate refresh token: %w", err)
		}
		b.WriteByte(refreshTokenAlphabet[n.Int64()])
	}
	b.WriteString(uuid.NewString())
	return b.String(), nil
}

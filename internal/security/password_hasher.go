package security

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ハッシュ形式のパラメータ。既存データと互換性を保つため変更しないこと。
const (
	HashMarker       = "$MYHASH$V1$"
	HashIterations   = 10000
	hashSaltSize     = 16
	hashKeySize      = 20
	hashEncodedBytes = hashSaltSize + hashKeySize
)

// ErrEmptyPassword は空のパスワードをハッシュしようとした場合のエラー。
var ErrEmptyPassword = errors.New("password must not be empty")

// PasswordHasher はパスワードのハッシュ化と照合を行うインターフェース。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) bool
}

// PBKDF2Hasher はPBKDF2-HMAC-SHA1によるPasswordHasherの実装。
// 出力形式: $MYHASH$V1${iterations}${base64(salt||key)}
type PBKDF2Hasher struct {
	iterations int
}

var _ PasswordHasher = (*PBKDF2Hasher)(nil)

// NewPBKDF2Hasher は既定の反復回数でハッシャーを生成する。
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{iterations: HashIterations}
}

// Hash はランダムなソルトを生成し、エンコード済みハッシュを返す。
func (h *PBKDF2Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, hashSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(plaintext), salt, h.iterations, hashKeySize, sha1.New)

	buf := make([]byte, 0, hashEncodedBytes)
	buf = append(buf, salt...)
	buf = append(buf, key...)

	return HashMarker + strconv.Itoa(h.iterations) + "$" + base64.StdEncoding.EncodeToString(buf), nil
}

// Verify はエンコード済みハッシュと平文を照合する。
// 形式が不正な場合は常にfalseを返す。比較は定数時間で行う。
func (h *PBKDF2Hasher) Verify(encoded, plaintext string) bool {
	rest, ok := strings.CutPrefix(encoded, HashMarker)
	if !ok {
		return false
	}

	iterPart, b64Part, ok := strings.Cut(rest, "$")
	if !ok {
		return false
	}

	iterations, err := strconv.Atoi(iterPart)
	if err != nil || iterations <= 0 {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(b64Part)
	if err != nil || len(raw) != hashEncodedBytes {
		return false
	}

	salt := raw[:hashSaltSize]
	want := raw[hashSaltSize:]
	got := pbkdf2.Key([]byte(plaintext), salt, iterations, hashKeySize, sha1.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}

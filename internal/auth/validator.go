package auth

import (
	"strings"
	"unicode/utf8"
)

// DefaultUsernameMarker はユーザー名に必須の記号の既定値。
const DefaultUsernameMarker = "@"

const (
	minUsernameLength = 2
	minPasswordLength = 5
)

// LoginRequest はログイン要求。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest は登録要求。
type RegisterRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
}

// RefreshRequest はトークン更新要求。
type RefreshRequest struct {
	SessionToken string `json:"sessionToken"`
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"userId"`
}

// ProfileRequest はプロフィール更新要求。
type ProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Username  string `json:"username"`
}

// CredentialValidator はリクエストの構造的な検証を行う。副作用もI/Oも持たない。
type CredentialValidator struct {
	marker string
}

// NewCredentialValidator はユーザー名に必須の記号を指定してバリデータを生成する。
// 空文字列の場合は既定値を使う。
func NewCredentialValidator(marker string) *CredentialValidator {
	if marker == "" {
		marker = DefaultUsernameMarker
	}
	return &CredentialValidator{marker: marker}
}

// ValidateLogin はログイン要求を検証する。
func (v *CredentialValidator) ValidateLogin(req LoginRequest) bool {
	return v.validUsername(req.Username) && validPassword(req.Password)
}

// ValidateRegistration は登録要求を検証する。
func (v *CredentialValidator) ValidateRegistration(req RegisterRequest) bool {
	if blank(req.FirstName) || blank(req.LastName) || blank(req.RepeatPassword) {
		return false
	}
	if !validEmail(req.Email) || !v.validUsername(req.Username) || !validPassword(req.Password) {
		return false
	}
	return req.Password == req.RepeatPassword
}

// ValidateProfile はプロフィール更新要求を検証する。
func (v *CredentialValidator) ValidateProfile(req ProfileRequest) bool {
	if blank(req.FirstName) || blank(req.LastName) {
		return false
	}
	return validEmail(req.Email) && v.validUsername(req.Username)
}

func (v *CredentialValidator) validUsername(username string) bool {
	if blank(username) || utf8.RuneCountInString(username) < minUsernameLength {
		return false
	}
	return strings.Contains(username, v.marker)
}

func validPassword(password string) bool {
	return !blank(password) && utf8.RuneCountInString(password) >= minPasswordLength
}

func validEmail(email string) bool {
	return !blank(email) && strings.Contains(email, "@")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

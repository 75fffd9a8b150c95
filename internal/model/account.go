package model

import "time"

// Account は登録ユーザーの資格情報とセッション状態を表す。
// SessionToken と RefreshToken は常に対で発行・置換される。
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	SessionToken *string
	RefreshToken *string
	SavedPostIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnerID は所有者判定用にアカウント自身のIDを返す。
func (a *Account) OwnerID() string {
	if a == nil {
		return ""
	}
	return a.ID
}

// AuthResult はログイン・登録・リフレッシュ成功時の応答内容を表す。
type AuthResult struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	SessionToken string `json:"sessionToken"`
	RefreshToken string `json:"refreshToken"`
}

// Profile は他ユーザーにも公開するアカウント情報。資格情報は含めない。
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileOf はアカウントから公開プロフィールを組み立てる。
func ProfileOf(a *Account) Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		CreatedAt: a.CreatedAt,
	}
}

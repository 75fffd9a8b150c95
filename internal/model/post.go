package model

import "time"

// Post はユーザーが投稿するコードスニペットを表す。
// 削除は論理削除で、IsDeleted が true の投稿は読み取り経路で除外する。
type Post struct {
	ID          string
	AuthorID    string
	Title       string
	Description string
	Code        string
	IsFree      bool
	Price       int
	Tags        []string
	IsDeleted   bool
	CreatedAt   time.Time
}

// OwnerID は投稿者のIDを返す。
func (p *Post) OwnerID() string {
	if p == nil {
		return ""
	}
	return p.AuthorID
}

// PostInput は投稿の作成・更新で受け付ける内容。
type PostInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	IsFree      bool     `json:"isFree"`
	Price       int      `json:"price"`
	Tags        []string `json:"tags"`
}

// PostView は投稿のAPIレスポンス表現。
type PostView struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Excerpt     string    `json:"excerpt"`
	Code        string    `json:"code"`
	IsFree      bool      `json:"isFree"`
	Price       int       `json:"price"`
	Tags        []string  `json:"tags"`
	Timestamp   time.Time `json:"timestamp"`
}

// PostPage はoffset/limitによる投稿一覧の1ページ。
type PostPage struct {
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
	Items  []PostView `json:"items"`
}

package model

import "time"

// Comment は投稿へのコメントを表す。論理削除は行わない。
type Comment struct {
	ID             string
	PostID         string
	AuthorID       string
	AuthorUsername string
	Content        string
	CreatedAt      time.Time
}

// OwnerID はコメント投稿者のIDを返す。
func (c *Comment) OwnerID() string {
	if c == nil {
		return ""
	}
	return c.AuthorID
}

// CommentView はコメントのAPIレスポンス表現。
type CommentView struct {
	ID             string    `json:"id"`
	PostID         string    `json:"postId"`
	AuthorID       string    `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

// CommentViewOf はコメントをレスポンス表現に変換する。
func CommentViewOf(c *Comment) CommentView {
	return CommentView{
		ID:             c.ID,
		PostID:         c.PostID,
		AuthorID:       c.AuthorID,
		AuthorUsername: c.AuthorUsername,
		Content:        c.Content,
		Timestamp:      c.CreatedAt,
	}
}

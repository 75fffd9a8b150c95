// Package security はアプリケーションのセキュリティ機能を提供する。
//
// パスワードハッシュ、ユーザー投稿コンテンツのサニタイズ、
// 一覧表示用のプレーンテキスト抜粋の生成を扱う。
package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力HTMLのサニタイズ機能のインターフェースを定義する。
type ContentSanitizerService interface {
	// SanitizeDescription は投稿説明文をサニタイズする。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em, img）のみを通過させる。
	SanitizeDescription(rawHTML string) string
	// SanitizeComment はコメント本文から全てのタグを除去する。
	SanitizeComment(raw string) string
}

type contentSanitizer struct {
	description *bluemonday.Policy
	comment     *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
//   - 説明文: 許可リスト方式。imgのsrcはhttpsのみ、aタグにはtarget="_blank"とrel="noopener noreferrer"を付与
//   - コメント: StrictPolicy（全タグ除去）
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		description: p,
		comment:     bluemonday.StrictPolicy(),
	}
}

func (s *contentSanitizer) SanitizeDescription(rawHTML string) string {
	return s.description.Sanitize(rawHTML)
}

func (s *contentSanitizer) SanitizeComment(raw string) string {
	return s.comment.Sanitize(raw)
}

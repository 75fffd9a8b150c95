package security

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DefaultExcerptLength は一覧表示用抜粋の既定の最大文字数。
const DefaultExcerptLength = 160

// PlainTextExcerpt はHTMLからテキストノードのみを取り出し、
// 連続する空白を1つにまとめて最大maxRunes文字に切り詰める。
// 切り詰めた場合は末尾に "…" を付ける。
func PlainTextExcerpt(rawHTML string, maxRunes int) string {
	if rawHTML == "" || maxRunes <= 0 {
		return ""
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	skip := 0

loop:
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			break loop
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			b.WriteString(string(tokenizer.Text()))
			b.WriteByte(' ')
		}
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}

func isHiddenTag(name string) bool {
	return name == "script" || name == "style"
}

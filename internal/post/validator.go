package post

import (
	"strings"

	"github.com/google/uuid"

	"github.com/SocialCodeTFC/Backend/internal/model"
)

const (
	maxTitleLength = 255
	maxTags        = 10
)

// validateInput は投稿内容を検証する。
// 無料の投稿は価格0、有料の投稿は正の価格でなければならない。
func validateInput(in model.PostInput) *model.APIError {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.NewInvalidPostError("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return model.NewInvalidPostError("title is too long")
	}
	if in.Price < 0 {
		return model.NewInvalidPostError("price must not be negative")
	}
	if in.IsFree && in.Price != 0 {
		return model.NewInvalidPostError("a free post must have price 0")
	}
	if !in.IsFree && in.Price == 0 {
		return model.NewInvalidPostError("a paid post must have a positive price")
	}
	if len(normalizeTags(in.Tags)) > maxTags {
		return model.NewInvalidPostError("too many tags")
	}
	return nil
}

// normalizeTags は前後の空白を除去し、空のタグと重複を取り除く。順序は保持する。
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// validID はIDがUUID形式かどうかを判定する。
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

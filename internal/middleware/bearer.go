// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SocialCodeTFC/Backend/internal/auth"
	"github.com/SocialCodeTFC/Backend/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userIDContextKey       = contextKey("user_id")
	requestStateContextKey = contextKey("request_state")
)

// requestState はロギングミドルウェアが内側のミドルウェアから情報を受け取るための入れ物。
type requestState struct {
	userID string
}

// SessionTokenVerifier はセッショントークンを検証するインターフェース。
// *auth.TokenIssuer が実装する。
type SessionTokenVerifier interface {
	ParseSessionToken(token string) (*auth.Claims, error)
}

// NewBearerAuthMiddleware はAuthorization: Bearer ヘッダーのセッショントークンを検証し、
// subjectのアカウントIDをリクエストコンテキストに注入するミドルウェアを返す。
// トークンがない・不正・期限切れの場合は401を返す。
func NewBearerAuthMiddleware(verifier SessionTokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			claims, err := verifier.ParseSessionToken(token)
			if err != nil {
				slog.Debug("session token rejected", slog.String("error", err.Error()))
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.Subject)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="socialcode"`)
	WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "A valid session token is required",
		Category: "auth",
		Action:   "Log in or refresh your session token.",
	})
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// ロギングミドルウェアの内側で呼ばれた場合はアクセスログにも記録される。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if state, ok := ctx.Value(requestStateContextKey).(*requestState); ok {
		state.userID = userID
	}
	return context.WithValue(ctx, userIDContextKey, userID)
}

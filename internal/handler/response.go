package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SocialCodeTFC/Backend/internal/middleware"
	"github.com/SocialCodeTFC/Backend/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限サイズ。
// 投稿のコード本文を含むため余裕を持たせている。
const maxBodyBytes = 1 << 20

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをdstに読み込む。
// 未知のフィールドや複数のJSON値は受け付けない。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// writeDecodeError はボディ解析失敗を400として書き込む。
func writeDecodeError(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest,
		model.NewInvalidRequestError("Request body is not valid JSON"))
}

// principalID は認証ミドルウェアが注入したアカウントIDを取り出す。
// 取り出せない場合は401を書き込み、falseを返す。
func principalID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "A valid session token is required",
			Category: "auth",
			Action:   "Log in or refresh your session token.",
		})
		return "", false
	}
	return userID, true
}

// queryInt はクエリパラメータを整数として読む。未指定の場合は0を返す。
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

// handleServiceError はサービス層のエラーを適切なHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Kind != model.KindGeneric {
		middleware.WriteErrorResponse(w, statusForKind(apiErr.Kind), apiErr)
		return
	}

	// 種別のないエラーと内部エラーは詳細を隠して500を返す
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// statusForKind は失敗種別をHTTPステータスコードに対応づける。
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindBadRequest:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

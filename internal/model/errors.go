// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorKind は失敗の種別を表す。HTTP層はこの種別をステータスコードに変換する。
type ErrorKind string

const (
	KindBadRequest ErrorKind = "bad_request"
	KindNotFound   ErrorKind = "not_found"
	KindForbidden  ErrorKind = "forbidden"
	KindConflict   ErrorKind = "conflict"
	KindGeneric    ErrorKind = "generic"
)

// APIError は統一エラーフォーマットを表す。
// 失敗種別に加えて、UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // 失敗種別
	Code     string    // エラーコード
	Message  string    // エラーメッセージ
	Category string    // カテゴリ: auth, validation, post, comment, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// KindOf はエラーの失敗種別を返す。APIError以外はKindGenericとして扱う。
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindGeneric
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidLogin       = "INVALID_LOGIN_REQUEST"
	ErrCodeInvalidRegister    = "INVALID_REGISTER_REQUEST"
	ErrCodeCredentialMismatch = "CREDENTIAL_MISMATCH"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeRefreshMismatch    = "REFRESH_TOKEN_MISMATCH"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeInvalidPost        = "INVALID_POST"
	ErrCodeCommentNotFound    = "COMMENT_NOT_FOUND"
	ErrCodeInvalidComment     = "INVALID_COMMENT"
	ErrCodeNotOwner           = "NOT_OWNER"
	ErrCodeInvalidPagination  = "INVALID_PAGINATION"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidRequestError は汎用の入力不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "Check the request parameters and try again.",
	}
}

// NewInvalidLoginError はログイン要求の構造不正エラーを生成する。
func NewInvalidLoginError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidLogin,
		Message:  "Login request is not valid",
		Category: "validation",
		Action:   "Enter your username and a password of at least 5 characters.",
	}
}

// NewInvalidRegisterError は登録要求の構造不正エラーを生成する。
func NewInvalidRegisterError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidRegister,
		Message:  "Register request is not valid",
		Category: "validation",
		Action:   "Fill in every field and make sure both passwords match.",
	}
}

// NewCredentialMismatchError は認証情報の不一致エラーを生成する。
// どのフィールドが誤っていたかは明かさない。
func NewCredentialMismatchError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeCredentialMismatch,
		Message:  "Credentials do not match",
		Category: "auth",
		Action:   "Check your username and password.",
	}
}

// NewInvalidTokenError はセッショントークンの構造不正エラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid request, token is not valid!",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewRefreshMismatchError はリフレッシュトークンの不一致エラーを生成する。
func NewRefreshMismatchError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeRefreshMismatch,
		Message:  "Refresh request Token doesn't match with user Token!",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeUserNotFound,
		Message:  "User not found!",
		Category: "auth",
		Action:   "Check the user id or log in again.",
	}
}

// NewDuplicateAccountError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewDuplicateAccountError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateAccount,
		Message:  "Existing username or email",
		Category: "auth",
		Action:   "Choose another username or email address.",
	}
}

// NewPostNotFoundError は投稿未検出エラーを生成する。論理削除済みの投稿も含む。
func NewPostNotFoundError(postID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodePostNotFound,
		Message:  fmt.Sprintf("Post not found: %s", postID),
		Category: "post",
		Action:   "Check the post id.",
	}
}

// NewInvalidPostError は投稿内容の不正エラーを生成する。
func NewInvalidPostError(reason string) *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidPost,
		Message:  fmt.Sprintf("Post is not valid: %s", reason),
		Category: "validation",
		Action:   "A post needs a title, and a free post must have price 0 while a paid post must have a positive price.",
	}
}

// NewCommentNotFoundError はコメント未検出エラーを生成する。
func NewCommentNotFoundError(commentID string) *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("Comment not found: %s", commentID),
		Category: "comment",
		Action:   "Check the comment id.",
	}
}

// NewInvalidCommentError はコメント内容の不正エラーを生成する。
func NewInvalidCommentError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidComment,
		Message:  "Comment content must not be empty",
		Category: "validation",
		Action:   "Write something before sending the comment.",
	}
}

// NewNotOwnerError は所有者以外による変更操作のエラーを生成する。
func NewNotOwnerError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeNotOwner,
		Message:  "Only the author can change this resource",
		Category: "auth",
		Action:   "Log in as the author of the resource.",
	}
}

// NewInvalidPaginationError はoffset/limitの不正エラーを生成する。
func NewInvalidPaginationError() *APIError {
	return &APIError{
		Kind:     KindBadRequest,
		Code:     ErrCodeInvalidPagination,
		Message:  "Offset must be zero or positive and limit must be between 1 and 100",
		Category: "validation",
		Action:   "Fix the offset and limit query parameters.",
	}
}

// NewInternalError は内部エラーを生成する。原因の詳細はレスポンスに含めない。
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:     KindGeneric,
		Code:     ErrCodeInternal,
		Message:  message,
		Category: "system",
		Action:   "Please try again later.",
	}
}

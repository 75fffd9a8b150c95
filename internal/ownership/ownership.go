// Package ownership はリソースの所有者判定を提供する。
package ownership

// Owned は所有者を持つリソース。nilレシーバでは空文字列を返すこと。
type Owned interface {
	OwnerID() string
}

// IsOwner はprincipalIDがリソースの所有者である場合にtrueを返す。
// リソースがnilか、どちらかのIDが空の場合はfalse。
func IsOwner(resource Owned, principalID string) bool {
	if resource == nil || principalID == "" {
		return false
	}
	owner := resource.OwnerID()
	return owner != "" && owner == principalID
}

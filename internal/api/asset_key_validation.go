package api

import (
	"strings"
	"unicode/utf8"

	"resumify/internal/auth"
	"resumify/internal/storage"
)

// ownsAvatarKey 检查 key 是否是 owner 上传的头像对象。
func ownsAvatarKey(id *auth.Identity, key string) bool {
	if id == nil || key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	if !storage.IsAvatarKey(key) {
		return false
	}
	if !strings.HasPrefix(key, storage.AvatarPrefix(auth.Key(id, ""))) {
		return false
	}
	if strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	lower := strings.ToLower(key)
	for _, ext := range avatarExtensions {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}

// checkAvatarReference 拒绝引用他人头像对象的简历，外链与 data URI 不受影响。
func checkAvatarReference(id *auth.Identity, avatarURL string) bool {
	key := strings.TrimSpace(avatarURL)
	if !storage.IsAvatarKey(key) {
		return true
	}
	return ownsAvatarKey(id, key)
}

package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	exportPrefix    = "exports/"
	thumbnailPrefix = "thumbnails/template/"
	avatarPrefix    = "avatars/"
)

// ExportKey 是导出 PDF 的对象 Key。
func ExportKey(exportID string) string {
	return exportPrefix + exportID + ".pdf"
}

// ThumbnailKey 是模板缩略图的对象 Key。
func ThumbnailKey(templateID string) string {
	return thumbnailPrefix + templateID + ".jpg"
}

// AvatarPrefix 是 owner 上传头像的目录，owner 为 auth.Key 的结果。
func AvatarPrefix(owner string) string {
	return avatarPrefix + strings.NewReplacer(":", "/", "..", "").Replace(owner) + "/"
}

// AvatarKey 为上传的头像生成新的对象 Key。
func AvatarKey(owner, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return fmt.Sprintf("%s%s.%s", AvatarPrefix(owner), uuid.NewString(), ext)
}

// IsAvatarKey 判断简历里的头像地址是否指向本服务的对象。
func IsAvatarKey(key string) bool {
	return strings.HasPrefix(key, avatarPrefix) && !strings.Contains(key, "..")
}

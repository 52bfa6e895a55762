package worker

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resumify/internal/resume"
	"resumify/internal/storage"
)

// maxAvatarBytes 与上传接口的限制一致。
const maxAvatarBytes = 5 << 20

// inlineAvatar 把指向对象存储的头像替换为 data URI，离屏浏览器无需访问内网存储。
// 对象缺失时清空头像并返回其 Key，其余错误原样返回。
func inlineAvatar(ctx context.Context, store storage.ObjectStore, d *resume.Data) (missing string, err error) {
	key := strings.TrimSpace(d.Personal.AvatarURL)
	if !storage.IsAvatarKey(key) {
		return "", nil
	}

	obj, err := store.Get(ctx, key)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			d.Personal.AvatarURL = ""
			return key, nil
		}
		return "", fmt.Errorf("fetch avatar: %w", err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(io.LimitReader(obj, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if len(raw) > maxAvatarBytes {
		d.Personal.AvatarURL = ""
		return key, nil
	}

	contentType := http.DetectContentType(raw)
	if !strings.HasPrefix(contentType, "image/") {
		d.Personal.AvatarURL = ""
		return key, nil
	}
	d.Personal.AvatarURL = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw)
	return "", nil
}

package auth

import "strconv"

// Identity 是请求方的身份；nil 表示访客。
type Identity struct {
	UserID    uint
	Name      string
	Email     string
	IsPremium bool
}

// Premium 对 nil 身份返回 false。
func (id *Identity) Premium() bool {
	return id != nil && id.IsPremium
}

// Key 是限流与导出互斥使用的身份键，访客按来源地址区分。
func Key(id *Identity, clientIP string) string {
	if id == nil {
		return "guest:" + clientIP
	}
	return "user:" + strconv.FormatUint(uint64(id.UserID), 10)
}

package export

import (
	"resumify/internal/auth"
	"resumify/internal/catalog"
)

// Redirect 告诉前端被拦截后应跳转到哪里。
type Redirect string

const (
	RedirectNone    Redirect = ""
	RedirectLogin   Redirect = "login"
	RedirectUpgrade Redirect = "upgrade"
)

// Decision 是会员闸门的判定结果。
type Decision struct {
	Allowed  bool     `json:"allowed"`
	Redirect Redirect `json:"redirect,omitempty"`
}

// Gate 判定 id 能否使用模板 t 导出或选中。访客遇到会员模板跳转登录，
// 已登录的非会员跳转升级。
func Gate(t catalog.Template, id *auth.Identity) Decision {
	if !t.IsPremium || id.Premium() {
		return Decision{Allowed: true}
	}
	if id == nil {
		return Decision{Redirect: RedirectLogin}
	}
	return Decision{Redirect: RedirectUpgrade}
}

// Watermark 报告 id 导出的文档是否需要加水印。
func Watermark(id *auth.Identity) bool {
	return !id.Premium()
}

package export

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// FileName 生成下载文件名：姓名中的空白折叠为下划线，再拼接模板 ID。
func FileName(fullName, templateID string) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(fullName), "_")
	return name + "_" + templateID + "_Resume.pdf"
}

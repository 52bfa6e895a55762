package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"resumify/internal/resume"
)

// maxResumeFile 与 API 的请求体上限一致。
const maxResumeFile = 1 << 20

var errEmptyResume = errors.New("resume file is empty")

// loadResume 读取 JSON 或 YAML 格式的简历文件。path 为空时返回示例简历。
// 未知字段直接报错，避免拼错的键被悄悄丢掉。
func loadResume(path string) (resume.Data, error) {
	if path == "" {
		return resume.Sample(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return resume.Data{}, fmt.Errorf("read resume file: %w", err)
	}
	return parseResume(raw)
}

func parseResume(raw []byte) (resume.Data, error) {
	if len(raw) == 0 {
		return resume.Data{}, errEmptyResume
	}
	if len(raw) > maxResumeFile {
		return resume.Data{}, fmt.Errorf("resume file exceeds %d bytes", maxResumeFile)
	}

	var d resume.Data
	if err := yaml.UnmarshalWithOptions(raw, &d, yaml.Strict()); err != nil {
		return resume.Data{}, fmt.Errorf("parse resume: %w", err)
	}
	d = resume.Normalize(d)
	if err := resume.Validate(d); err != nil {
		return resume.Data{}, err
	}
	return d, nil
}

// Package nodes 提供 Eino Graph 中使用的 Lambda 节点实现
package nodes

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"review-sentiment/internal/domain/services"
)

// InputGuard 校验预测输入
type InputGuard struct {
	maxTextLength int
}

// NewInputGuard 创建输入校验器，maxTextLength 为 0 时不限制长度
func NewInputGuard(maxTextLength int) *InputGuard {
	return &InputGuard{maxTextLength: maxTextLength}
}

// CheckText 校验单条文本
// 去除空白后为空返回 ErrEmptyInput，超过最大长度返回 ErrTextTooLong
func (g *InputGuard) CheckText(text string) error {
	if IsBlank(text) {
		return services.ErrEmptyInput
	}
	if g.maxTextLength > 0 && utf8.RuneCountInString(text) > g.maxTextLength {
		return services.ErrTextTooLong
	}
	return nil
}

// IsBlank 判断文本是否只包含空白
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// PreprocessText 对送入向量化器的文本做清洗。
// 控制字符视为分隔符，随后合并连续空白并去除首尾空白；文本统计使用原始文本，不经过此步骤。
func PreprocessText(text string) string {
	return normalizeWhitespace(replaceControlChars(text))
}

// normalizeWhitespace 将连续的空白字符替换为单个空格。
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// replaceControlChars 将控制字符替换为空格，避免相邻的两个词被拼成一个。
func replaceControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

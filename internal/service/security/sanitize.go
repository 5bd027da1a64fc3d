// Package security 提供消息核心的安全能力
// 本文件实现输入净化：剥离 HTML/脚本、SQL 元字符、路径穿越序列
package security

import (
	"regexp"
	"strings"

	"edumsg_server/pkg/constants"
)

// 危险模式集合
// 净化循环反复应用直到输出稳定，防止剥离一层后又拼出新的危险序列
// （例如 "<scr<script>ipt>" 删掉内层后重新形成 "<script>"）
var (
	// scriptBlockRegex 完整的 script 块（含内容）
	scriptBlockRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	// htmlTagRegex 所有 HTML 标签
	htmlTagRegex = regexp.MustCompile(`(?s)<[^>]*>`)
	// jsURIRegex javascript:/vbscript:/data: 协议
	jsURIRegex = regexp.MustCompile(`(?i)(javascript|vbscript|data)\s*:`)
	// eventHandlerRegex 内联事件处理属性，如 onclick=、onerror =
	eventHandlerRegex = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	// sqlCommentRegex SQL 注释序列
	sqlCommentRegex = regexp.MustCompile(`--|/\*|\*/|#`)
	// traversalRegex 路径穿越及其常见编码变体
	traversalRegex = regexp.MustCompile(`(?i)\.\.[/\\]|\.\.%2f|\.\.%5c|%2e%2e[/\\]|%2e%2e%2f|%2e%2e%5c|%c0%ae|%e0%80%ae`)
)

// sqlMetaReplacer SQL 元字符
var sqlMetaReplacer = strings.NewReplacer("'", "", `"`, "", ";", "", "\\", "")

// sanitizePass 单轮净化
func sanitizePass(s string) string {
	s = scriptBlockRegex.ReplaceAllString(s, "")
	s = htmlTagRegex.ReplaceAllString(s, "")
	s = jsURIRegex.ReplaceAllString(s, "")
	s = eventHandlerRegex.ReplaceAllString(s, "")
	s = traversalRegex.ReplaceAllString(s, "")
	s = sqlCommentRegex.ReplaceAllString(s, "")
	s = sqlMetaReplacer.Replace(s)
	return s
}

// stripControl 去除控制字符（保留换行与制表符）
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Sanitize 净化输入并截断到 maxRunes 个字符
// 无论输入多长，输出长度都有上界，限制下游处理成本
func Sanitize(raw string, maxRunes int) string {
	s := stripControl(raw)

	// 迭代到稳定为止，设上限防止构造输入导致死循环
	for i := 0; i < 10; i++ {
		next := sanitizePass(s)
		if next == s {
			break
		}
		s = next
	}

	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) > maxRunes {
		s = string(runes[:maxRunes])
	}
	return s
}

// SanitizeInput 净化通用短输入（标题、文件名等），输出上限 1000 字符
func SanitizeInput(raw string) string {
	return Sanitize(raw, constants.SANITIZE_MAX_LENGTH)
}

// SanitizeContent 净化消息正文，输出上限为消息最大长度
func SanitizeContent(raw string) string {
	return Sanitize(raw, constants.MESSAGE_MAX_LENGTH)
}

// SanitizeFilename 净化上传文件名
// 先取基础文件名再净化：目录分隔符在净化阶段会被当作元字符剥离，
// 顺序反了会把路径残片拼进文件名
func SanitizeFilename(raw string) string {
	if idx := strings.LastIndexAny(raw, "/\\"); idx >= 0 {
		raw = raw[idx+1:]
	}
	return Sanitize(raw, 255)
}

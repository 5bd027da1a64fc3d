package security

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScriptAndTags(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"script block", `hello <script>alert(1)</script> world`, "hello  world"},
		{"nested script", `<scr<script>ipt>alert(1)</scr</script>ipt>`, ""},
		{"html tag", `<b>bold</b> text`, "bold text"},
		{"event handler", `<img src=x onerror=alert(1)>`, ""},
		{"js uri", `click javascript:alert(1)`, "click alert(1)"},
		{"plain text unchanged", "作业已提交，请查收", "作业已提交，请查收"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeInput(tc.in))
		})
	}
}

func TestSanitizeStripsSQLMeta(t *testing.T) {
	assert.Equal(t, "1 OR 1=1", SanitizeInput(`1' OR 1=1 --`))
	assert.Equal(t, "DROP TABLE users  boom", SanitizeInput(`DROP TABLE users; /* boom */`))
	assert.NotContains(t, SanitizeInput(`a"b'c;d\e`), `"`)
	assert.NotContains(t, SanitizeInput(`a"b'c;d\e`), `'`)
}

func TestSanitizeStripsTraversal(t *testing.T) {
	for _, in := range []string{
		"../../etc/passwd",
		`..\..\windows\system32`,
		"%2e%2e%2fetc%2fpasswd",
		"..%2f..%2fsecret",
	} {
		out := SanitizeInput(in)
		assert.NotContains(t, out, "../", "in=%q out=%q", in, out)
		assert.NotContains(t, strings.ToLower(out), "%2e%2e", "in=%q out=%q", in, out)
	}
}

func TestSanitizeStripsControlChars(t *testing.T) {
	out := SanitizeInput("abc\x00def\x1bghi")
	assert.Equal(t, "abcdefghi", out)
	// 换行和制表符保留
	assert.Equal(t, "line1\nline2\tend", SanitizeInput("line1\nline2\tend"))
}

func TestSanitizeTruncates(t *testing.T) {
	long := strings.Repeat("字", 2000)
	out := SanitizeInput(long)
	assert.Equal(t, 1000, utf8.RuneCountInString(out))

	out = SanitizeContent(strings.Repeat("a", 20000))
	assert.Equal(t, 10000, utf8.RuneCountInString(out))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFilename("report.pdf"))
	// 路径穿越序列被剥离后只保留基础文件名
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "notes.txt", SanitizeFilename(`C:\Users\me\notes.txt`))
}

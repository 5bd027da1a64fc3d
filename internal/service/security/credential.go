// Package security 提供消息核心的安全能力
// 本文件实现凭证服务：自适应密码哈希与校验、邮箱格式校验
package security

import (
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"edumsg_server/pkg/errorx"
)

// emailRegex 邮箱格式校验
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// dummyHash 固定的占位哈希
// 存储哈希损坏或用户不存在时，仍对该哈希做一次完整的 bcrypt 比较，
// 让失败路径与正常校验耗时一致，防止账号枚举
var dummyHash []byte

func init() {
	var err error
	dummyHash, err = bcrypt.GenerateFromPassword([]byte("edumsg-timing-equalizer"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
}

// CredentialService 凭证服务
// 密码哈希使用 bcrypt：自适应成本、内置盐、逐字节比较不短路
type CredentialService struct {
	cost int
}

// NewCredentialService 创建凭证服务
func NewCredentialService() *CredentialService {
	return &CredentialService{cost: bcrypt.DefaultCost}
}

// HashPassword 哈希密码
// bcrypt 输入上限 72 字节，超长直接拒绝而不是静默截断
func (s *CredentialService) HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errorx.New(errorx.CodeInvalidParam, "密码不能为空")
	}
	if len(plaintext) > 72 {
		return "", errorx.New(errorx.CodeInvalidParam, "密码过长")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "密码哈希失败")
	}
	return string(hash), nil
}

// VerifyPassword 校验密码
// 无论密码正确、错误还是存储哈希损坏，都完成一次完整的 bcrypt 比较；
// 哈希损坏时退化为与占位哈希比较，返回 false 且耗时不变
func (s *CredentialService) VerifyPassword(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true
	}
	if err != bcrypt.ErrMismatchedHashAndPassword {
		// 哈希格式损坏：补一次占位比较，平衡耗时
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
	}
	return false
}

// ValidateEmail 校验邮箱格式
func (s *CredentialService) ValidateEmail(email string) error {
	if email == "" || utf8.RuneCountInString(email) > 100 {
		return errorx.New(errorx.CodeInvalidParam, "邮箱格式错误")
	}
	if !emailRegex.MatchString(email) {
		return errorx.New(errorx.CodeInvalidParam, "邮箱格式错误")
	}
	return nil
}

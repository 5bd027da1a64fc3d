// Package blob 抽象附件二进制的外部对象存储
// 消息核心只持有不透明的存储句柄，从不在自己的记录里内联二进制内容
package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"edumsg_server/pkg/errorx"
	"edumsg_server/pkg/urlcrypt"
)

// Store 对象存储接口
// Put 写入二进制；SignedURL 签发限时下载链接；Resolve 校验下载令牌
type Store interface {
	// Put 写入二进制内容，必须尊重 ctx 的超时/取消
	Put(ctx context.Context, storagePath string, r io.Reader, mimeType string) error
	// SignedURL 为存储句柄签发限时下载 URL
	SignedURL(storagePath string, ttl time.Duration) (string, error)
	// Resolve 校验签名令牌，返回可读取的本地路径
	Resolve(token string) (string, error)
}

// urlToken 签名 URL 令牌的载荷
type urlToken struct {
	Path      string `json:"p"`
	ExpiresAt int64  `json:"exp"`
}

// DiskStore 本地磁盘实现
// 生产环境可替换为对象存储服务的实现，接口不变
type DiskStore struct {
	root      string
	cryptor   *urlcrypt.Cryptor
	urlPrefix string
}

// NewDiskStore 创建磁盘存储
// urlPrefix 形如 "https://host:port/attachment/download"
func NewDiskStore(root, secret, urlPrefix string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errorx.Wrap(err, errorx.CodeUpstream, "创建附件存储目录失败")
	}
	return &DiskStore{
		root:      root,
		cryptor:   urlcrypt.NewCryptor(secret),
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// ctxReader 在每次 Read 时检查 ctx 是否已取消
// 上传超时由此感知，不会在慢客户端上无限挂起
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Put 写入二进制内容
// 先写临时文件再原子重命名，读取方不会看到半截文件；
// ctx 超时/取消返回 CodeUpstream 的上传超时错误
func (s *DiskStore) Put(ctx context.Context, storagePath string, r io.Reader, mimeType string) error {
	target, err := s.localPath(storagePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errorx.Wrap(err, errorx.CodeUpstream, "创建附件子目录失败")
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return errorx.Wrap(err, errorx.CodeUpstream, "创建临时文件失败")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, copyErr := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	closeErr := tmp.Close()
	if copyErr != nil {
		if ctx.Err() != nil {
			return errorx.Wrap(copyErr, errorx.CodeUpstream, "附件上传超时")
		}
		return errorx.Wrap(copyErr, errorx.CodeUpstream, "附件写入失败")
	}
	if closeErr != nil {
		return errorx.Wrap(closeErr, errorx.CodeUpstream, "附件写入失败")
	}

	if err := os.Rename(tmpName, target); err != nil {
		return errorx.Wrap(err, errorx.CodeUpstream, "附件落盘失败")
	}
	zap.L().Debug("attachment stored",
		zap.String("storage_path", storagePath), zap.String("mime_type", mimeType))
	return nil
}

// SignedURL 签发限时下载 URL
// 令牌是 AES-GCM 密文：路径和过期时间不可篡改，也不暴露内部路径
func (s *DiskStore) SignedURL(storagePath string, ttl time.Duration) (string, error) {
	payload, err := json.Marshal(urlToken{
		Path:      storagePath,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "签名URL序列化失败")
	}
	token, err := s.cryptor.Seal(payload)
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "签名URL加密失败")
	}
	return fmt.Sprintf("%s?token=%s", s.urlPrefix, token), nil
}

// Resolve 校验下载令牌并返回本地路径
// 令牌被篡改或已过期都返回未授权
func (s *DiskStore) Resolve(token string) (string, error) {
	payload, err := s.cryptor.Open(token)
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeUnauthorized, "下载令牌无效")
	}
	var t urlToken
	if err := json.Unmarshal(payload, &t); err != nil {
		return "", errorx.Wrap(err, errorx.CodeUnauthorized, "下载令牌无效")
	}
	if time.Now().Unix() > t.ExpiresAt {
		return "", errorx.New(errorx.CodeUnauthorized, "下载链接已过期")
	}
	return s.localPath(t.Path)
}

// localPath 把存储句柄映射为根目录内的本地路径
// 句柄由服务端生成，这里仍做一次越界校验兜底
func (s *DiskStore) localPath(storagePath string) (string, error) {
	cleaned := filepath.Clean("/" + storagePath)
	full := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", errorx.New(errorx.CodeInvalidParam, "非法的存储路径")
	}
	return full, nil
}

// 确保 DiskStore 实现了 Store 接口
var _ Store = (*DiskStore)(nil)

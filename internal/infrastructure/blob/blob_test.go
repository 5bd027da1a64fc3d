package blob

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edumsg_server/pkg/errorx"
)

func testStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "test-url-secret", "/attachment/download")
	require.NoError(t, err)
	return store
}

func tokenOf(t *testing.T, signedURL string) string {
	t.Helper()
	u, err := url.Parse(signedURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestPutAndResolveRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "attachments/C1/a1.pdf", strings.NewReader("file-content"), "application/pdf")
	require.NoError(t, err)

	signedURL, err := store.SignedURL("attachments/C1/a1.pdf", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signedURL, "/attachment/download?token="))

	path, err := store.Resolve(tokenOf(t, signedURL))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file-content", string(data))
}

func TestPutRespectsContextCancel(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "attachments/C1/a2.pdf", strings.NewReader("late"), "application/pdf")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUpstream, errorx.GetCode(err))
}

func TestPutLeavesNoPartialFile(t *testing.T) {
	store := testStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = store.Put(ctx, "attachments/C1/a3.pdf", strings.NewReader("data"), "application/pdf")
	// 写入失败后目标文件不存在（临时文件已清理）
	path, err := store.localPath("attachments/C1/a3.pdf")
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestResolveRejectsExpired(t *testing.T) {
	store := testStore(t)
	signedURL, err := store.SignedURL("attachments/C1/a1.pdf", -time.Second)
	require.NoError(t, err)

	_, err = store.Resolve(tokenOf(t, signedURL))
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestResolveRejectsTamperedToken(t *testing.T) {
	store := testStore(t)
	signedURL, err := store.SignedURL("attachments/C1/a1.pdf", time.Minute)
	require.NoError(t, err)

	token := tokenOf(t, signedURL)
	_, err = store.Resolve(token[:len(token)-2] + "xx")
	require.Error(t, err)
	assert.Equal(t, errorx.CodeUnauthorized, errorx.GetCode(err))
}

func TestLocalPathRejectsEscape(t *testing.T) {
	store := testStore(t)
	// Clean("/"+path) 把上跳序列折叠在根内，任何句柄都逃不出存储根目录
	path, err := store.localPath("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, store.root))
}

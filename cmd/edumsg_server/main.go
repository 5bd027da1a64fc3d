package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"edumsg_server/internal/config"
	dao "edumsg_server/internal/dao/mysql"
	myredis "edumsg_server/internal/dao/redis"
	"edumsg_server/internal/handler"
	"edumsg_server/internal/https_server"
	"edumsg_server/internal/infrastructure/blob"
	"edumsg_server/internal/infrastructure/logger"
	"edumsg_server/internal/service/chat"
	"edumsg_server/internal/service/messaging"
	"edumsg_server/internal/service/security"
	"edumsg_server/internal/service/user"
	"edumsg_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化雪花算法节点
	snowflake.Init(conf.SnowflakeConfig.MachineID)

	// 6. 初始化 validator 翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("init validator translator failed", zap.Error(err))
	}

	// 7. 初始化安全服务（令牌、凭证、限流、会话）
	cache := myredis.GetCacheService()
	sec := security.NewService(conf, dao.Repos, cache)
	zap.L().Info("安全服务初始化成功")

	// 8. 初始化附件存储
	blobStore, err := blob.NewDiskStore(
		conf.AttachmentConfig.StoragePath,
		conf.AttachmentConfig.URLSecret,
		"/attachment/download",
	)
	if err != nil {
		zap.L().Fatal("init blob store failed", zap.Error(err))
	}
	zap.L().Info("附件存储初始化成功")

	// 9. 初始化实时分发服务器
	chatServer := chat.NewChatServer(chat.ChatServerConfig{
		Mode:             conf.KafkaConfig.MessageMode,
		ConversationRepo: dao.Repos.Conversation,
	})
	if conf.KafkaConfig.MessageMode == "kafka" {
		chatServer.InitKafka()
	}
	go chatServer.Start()
	zap.L().Info("实时分发服务器初始化成功")

	// 10. 初始化 Service 层（依赖注入）
	userSvc := user.NewService(conf, dao.Repos, sec)
	msgSvc := messaging.NewService(conf, dao.Repos, cache, sec, chatServer.GetBroker(), blobStore)
	zap.L().Info("Service 层初始化成功")

	// 11. 后台任务：过期登录会话清理
	cleanerCtx, cancelCleaner := context.WithCancel(context.Background())
	userSvc.StartSessionCleaner(cleanerCtx)

	// 12. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(userSvc, msgSvc, chatServer.GetBroker())
	engine := https_server.Init(handlers, sec)

	go func() {
		addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
		if err := engine.Run(addr); err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()
	zap.L().Info("服务启动完成",
		zap.String("host", conf.MainConfig.Host),
		zap.Int("port", conf.MainConfig.Port))

	// 设置信号监听，等待退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	cancelCleaner()
	chatServer.Close()
	zap.L().Info("服务器已关闭")
}

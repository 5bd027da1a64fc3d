// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"edumsg_server/internal/handler"
	"edumsg_server/internal/infrastructure/logger"
	"edumsg_server/internal/router"
	"edumsg_server/internal/service/security"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 初始化 HTTP 服务器并返回 Gin 引擎实例
// handlers: 依赖注入的 handler 聚合对象
// sec: 安全服务，认证中间件使用
// 配置顺序：
//  1. 创建空白 Gin 引擎（不含默认中间件）
//  2. 注册 Zap 日志和恢复中间件
//  3. 配置 CORS 跨域规则
//  4. 注册业务路由
func Init(handlers *handler.Handlers, sec *security.Service) *gin.Engine {
	engine := gin.New()

	// 自定义 Zap 日志中间件，替代 Gin 默认日志
	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // 生产环境应指定具体域名
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// TLS 重定向中间件（可选，由 Nginx 处理 SSL 时保持注释）
	// engine.Use(middleware.TlsHandler(config.GetConfig().MainConfig.Host, config.GetConfig().MainConfig.Port))

	rt := router.NewRouter(handlers, sec)
	rt.RegisterRoutes(engine)

	return engine
}

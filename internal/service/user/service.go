// Package user 实现账号服务：注册、登录、登出
// 资料主数据归外部资料服务所有，这里只维护消息核心需要的本地快照
package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"edumsg_server/internal/config"
	"edumsg_server/internal/dao/mysql/repository"
	"edumsg_server/internal/dto/request"
	"edumsg_server/internal/dto/respond"
	"edumsg_server/internal/model"
	"edumsg_server/internal/service/security"
	"edumsg_server/pkg/errorx"
	"edumsg_server/pkg/util/random"
)

// actionLogin 登录限流动作名
const actionLogin = "login"

// timeLayout 响应体中的时间格式
const timeLayout = "2006-01-02 15:04:05"

// Service 账号服务
type Service struct {
	repos *repository.Repositories
	sec   *security.Service
	conf  *config.Config
}

// NewService 创建账号服务
func NewService(conf *config.Config, repos *repository.Repositories, sec *security.Service) *Service {
	return &Service{repos: repos, sec: sec, conf: conf}
}

// Register 注册用户
// 邮箱是登录标识，重复注册返回冲突；密码只存 bcrypt 哈希
func (s *Service) Register(ctx context.Context, req request.RegisterRequest) (*respond.RegisterRespond, error) {
	if err := s.sec.Credentials.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if !model.ValidRole(req.Role) {
		return nil, errorx.New(errorx.CodeInvalidParam, "角色取值不合法")
	}
	fullName := security.SanitizeInput(req.FullName)
	if fullName == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "姓名不能为空")
	}

	hash, err := s.sec.Credentials.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	profile := &model.UserProfile{
		Uuid:     "U" + random.GetNowAndLenRandomString(13),
		FullName: fullName,
		Email:    req.Email,
		Role:     req.Role,
		Password: hash,
		Status:   0,
	}
	if err := s.repos.Profile.Create(profile); err != nil {
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.New(errorx.CodeUserExist, "该邮箱已注册")
		}
		return nil, err
	}

	zap.L().Info("user registered",
		zap.String("user_id", profile.Uuid),
		zap.String("role", profile.Role))
	return &respond.RegisterRespond{
		UserId:   profile.Uuid,
		FullName: profile.FullName,
		Email:    profile.Email,
		Role:     profile.Role,
	}, nil
}

// Login 登录
// 按来源 IP 限流；账号不存在与密码错误返回同一个错误，
// 且两条路径都完成一次完整的密码比较，耗时一致，防账号枚举
func (s *Service) Login(ctx context.Context, req request.LoginRequest, ip, userAgent string) (*respond.LoginRespond, error) {
	if _, err := s.sec.CheckRateLimit(ctx, actionLogin, ip, s.sec.LoginPolicy()); err != nil {
		return nil, err
	}

	profile, err := s.repos.Profile.FindByEmail(req.Email)
	if err != nil {
		if errorx.IsNotFound(err) {
			// 账号不存在也比较一次占位哈希，再返回统一错误
			s.sec.Credentials.VerifyPassword(req.Password, "")
			return nil, errorx.New(errorx.CodeUnauthorized, "邮箱或密码错误")
		}
		return nil, err
	}
	if !s.sec.Credentials.VerifyPassword(req.Password, profile.Password) {
		return nil, errorx.New(errorx.CodeUnauthorized, "邮箱或密码错误")
	}
	if profile.Status != 0 {
		return nil, errorx.New(errorx.CodeForbidden, "账号已被禁用")
	}

	session, tokenString, err := s.sec.CreateSession(profile.Uuid, profile.Role, ip, userAgent)
	if err != nil {
		return nil, err
	}

	zap.L().Info("user login",
		zap.String("user_id", profile.Uuid),
		zap.String("session_id", session.Uuid),
		zap.String("ip", ip))
	return &respond.LoginRespond{
		UserId:    profile.Uuid,
		FullName:  profile.FullName,
		Role:      profile.Role,
		Token:     tokenString,
		SessionId: session.Uuid,
		ExpiresAt: session.ExpiresAt.Format(timeLayout),
	}, nil
}

// Logout 登出
// 只能注销自己的会话；会话注销后对应令牌立即进入吊销集合
func (s *Service) Logout(ctx context.Context, callerId, sessionId string) error {
	session, err := s.repos.Session.FindByUuid(sessionId)
	if err != nil {
		return errorx.Wrap(err, errorx.CodeNotFound, "会话不存在")
	}
	if session.UserId != callerId {
		return errorx.New(errorx.CodeForbidden, "无权注销该会话")
	}
	return s.sec.Sessions.Revoke(ctx, sessionId)
}

// StartSessionCleaner 启动过期会话清理任务
// 每小时物理删除已过期的会话行，直到 ctx 取消
func (s *Service) StartSessionCleaner(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sec.Sessions.CleanupExpired(ctx)
			}
		}
	}()
}

package constants

const (
	CHANNEL_SIZE = 100 // 事件通道大小

	// 消息内容约束
	MESSAGE_MAX_LENGTH  = 10000 // 消息内容最大长度（字符）
	SANITIZE_MAX_LENGTH = 1000  // 通用输入净化后的最大长度（字符）

	// 附件约束
	ATTACHMENT_MAX_SIZE = 100 << 20 // 附件最大大小（100 MB）

	// 会话（登录态）约束
	SESSION_MAX_HOURS  = 24 // 登录会话最长有效期（小时）
	SESSION_ID_BYTES   = 32 // 会话 ID 随机字节数（hex 后为 64 字符）
	SEARCH_MIN_QUERY   = 2  // 消息搜索最短查询长度
	TYPING_TTL_SECONDS = 3  // 输入状态自动过期时间（秒）
)

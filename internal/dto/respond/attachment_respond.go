package respond

// AttachmentRespond 附件元数据响应
type AttachmentRespond struct {
	AttachmentId     string `json:"attachmentId"`
	MessageId        int64  `json:"messageId,string"`
	OriginalFilename string `json:"originalFilename"`
	MimeType         string `json:"mimeType"`
	FileSize         int64  `json:"fileSize"`
	IsUploaded       bool   `json:"isUploaded"`
	DownloadCount    int64  `json:"downloadCount"`
	CreatedAt        string `json:"createdAt"`
}

// AttachmentURLRespond 签名下载链接响应
type AttachmentURLRespond struct {
	Url       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

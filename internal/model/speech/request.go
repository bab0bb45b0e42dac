package speech

// TTSRequest 一次合成请求，SSML 必须是已编译完成的文档
type TTSRequest struct {
	SessionID string      `json:"sessionId"`
	SSML      string      `json:"ssml"`
	Format    AudioFormat `json:"format"` // 为空时使用连接配置中的格式
}

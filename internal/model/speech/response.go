package speech

import "time"

// TTSResponse 语音合成响应
type TTSResponse struct {
	SessionID string      `json:"sessionId"`
	AudioData []byte      `json:"-"`
	Format    AudioFormat `json:"format"`
	Size      int         `json:"size"`
	RequestID string      `json:"requestId,omitempty"`
	Cached    bool        `json:"cached"`
	CreatedAt time.Time   `json:"createdAt"`
}

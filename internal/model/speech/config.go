package speech

import "time"

// SynthesizerConfig 语音合成连接配置
type SynthesizerConfig struct {
	Endpoint    string        `json:"endpoint"`         // 完整 websocket 地址，优先于 Region
	Region      string        `json:"region,omitempty"` // 服务区域，例如 eastus
	Key         string        `json:"-"`                // Ocp-Apim-Subscription-Key
	Token       string        `json:"-"`                // Authorization bearer token
	AudioFormat AudioFormat   `json:"audioFormat"`
	Timeout     time.Duration `json:"timeout,omitempty"` // 单次合成超时
	MaxRetries  int           `json:"maxRetries,omitempty"`
}

package speech

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

// DefaultEndpoint 未配置 endpoint 与 region 时使用的合成服务地址
const DefaultEndpoint = "wss://eastus.tts.speech.microsoft.com/cognitiveservices/websocket/v1"

// RegionEndpoint 返回指定区域的合成服务地址
func RegionEndpoint(region string) string {
	return fmt.Sprintf("wss://%s.tts.speech.microsoft.com/cognitiveservices/websocket/v1", strings.TrimSpace(region))
}

// ResolveEndpoint 按 endpoint、region、默认地址的顺序选择服务地址
func ResolveEndpoint(cfg *speechmodel.SynthesizerConfig) string {
	if cfg == nil {
		return DefaultEndpoint
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		return endpoint
	}
	if region := strings.TrimSpace(cfg.Region); region != "" {
		return RegionEndpoint(region)
	}
	return DefaultEndpoint
}

// FormatEndpointURL 在地址上追加 X-ConnectionId 查询参数，保留原有参数
func FormatEndpointURL(endpoint, connectionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be ws or wss", endpoint)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	query := u.Query()
	query.Set("X-ConnectionId", connectionID)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// newConnectionID 生成不带连字符的 UUID，服务端要求 32 位十六进制
func newConnectionID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func newRequestID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

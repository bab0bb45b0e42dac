package speech

import (
	"fmt"
	"net/http"
	"strings"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

// resolveAuthHeader 根据配置生成握手请求头。
// key 与 token 都未配置时返回空请求头，按无鉴权方式连接，是否放行由服务端决定。
func resolveAuthHeader(cfg *speechmodel.SynthesizerConfig) (http.Header, error) {
	if cfg == nil {
		return nil, fmt.Errorf("语音合成配置未初始化")
	}

	header := http.Header{}
	if key := strings.TrimSpace(cfg.Key); key != "" {
		header.Set("Ocp-Apim-Subscription-Key", key)
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		token = strings.TrimPrefix(token, "Bearer ")
		header.Set("Authorization", "Bearer "+token)
	}
	return header, nil
}

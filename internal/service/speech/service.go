package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
	"github.com/cassight/aspeak/internal/service/ssml"
	"github.com/cassight/aspeak/internal/store/audiocache"
)

// AudioCache 合成结果缓存
type AudioCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key, format string, data []byte) error
}

// Service 语音服务核心业务逻辑
type Service struct {
	config   *speechmodel.SynthesizerConfig
	defaults *ssml.TextOptions
	pool     *ConnectionPool
	cache    AudioCache
}

// Option 配置 Service
type Option func(*Service)

// WithDefaults 设置默认文本参数，请求中未设置的字段从这里补全
func WithDefaults(defaults *ssml.TextOptions) Option {
	return func(s *Service) {
		s.defaults = defaults
	}
}

// WithCache 启用音频缓存
func WithCache(cache AudioCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithConnectionPool 替换默认连接池
func WithConnectionPool(pool *ConnectionPool) Option {
	return func(s *Service) {
		s.pool = pool
	}
}

// NewService 创建语音服务实例
func NewService(config *speechmodel.SynthesizerConfig, opts ...Option) *Service {
	s := &Service{config: config}
	for _, opt := range opts {
		opt(s)
	}

	if s.pool == nil {
		options := DefaultConnectionPoolOptions()
		if config != nil && config.MaxRetries > 0 {
			options.MaxRetries = config.MaxRetries
		}
		s.pool = NewConnectionPool(options)
	}
	return s
}

// Cleanup 清理资源
func (s *Service) Cleanup() {
	if s.pool != nil {
		s.pool.Cleanup()
	}
}

// Defaults 返回默认文本参数，可能为 nil
func (s *Service) Defaults() *ssml.TextOptions {
	return s.defaults
}

// Formats 返回支持的输出格式
func (s *Service) Formats() []speechmodel.AudioFormat {
	return speechmodel.AudioFormats()
}

// Compile 合并默认参数后编译为 SSML
func (s *Service) Compile(opts *ssml.TextOptions) (string, error) {
	if opts == nil {
		return "", ssml.ErrMissingText
	}
	return ssml.Interpolate(opts.Merge(s.defaults))
}

// SpeakSSML 合成一份 SSML 文档，音频写入 sink；format 为空时使用配置中的格式
func (s *Service) SpeakSSML(ctx context.Context, doc string, format speechmodel.AudioFormat, sink io.Writer) error {
	_, err := s.speak(ctx, doc, s.format(format), sink)
	return err
}

// SpeakText 编译文本参数并合成
func (s *Service) SpeakText(ctx context.Context, opts *ssml.TextOptions, format speechmodel.AudioFormat, sink io.Writer) error {
	doc, err := s.Compile(opts)
	if err != nil {
		return err
	}
	return s.SpeakSSML(ctx, doc, format, sink)
}

// SynthesizeText 编译文本参数并返回完整音频
func (s *Service) SynthesizeText(ctx context.Context, sessionID string, opts *ssml.TextOptions, format speechmodel.AudioFormat) (*speechmodel.TTSResponse, error) {
	doc, err := s.Compile(opts)
	if err != nil {
		return nil, err
	}

	return s.SynthesizeSpeech(ctx, &speechmodel.TTSRequest{
		SessionID: sessionID,
		SSML:      doc,
		Format:    format,
	})
}

// SynthesizeSpeech 合成一份已编译的 SSML 文档并返回完整音频，命中缓存时不访问服务端
func (s *Service) SynthesizeSpeech(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if req == nil || strings.TrimSpace(req.SSML) == "" {
		return nil, fmt.Errorf("TTS ssml is empty")
	}

	format := s.format(req.Format)
	key := audiocache.Key(string(format), req.SSML)

	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			glog.Warningf("[cache] lookup failed: %v", err)
		} else if ok {
			glog.V(1).Infof("[cache] hit %s", key[:12])
			return newResponse(req.SessionID, data, format, "", true), nil
		}
	}

	var audio bytes.Buffer
	requestID, err := s.speak(ctx, req.SSML, format, &audio)
	if err != nil {
		return nil, err
	}
	if audio.Len() == 0 {
		return nil, fmt.Errorf("TTS audio is empty")
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, string(format), audio.Bytes()); err != nil {
			glog.Warningf("[cache] store failed: %v", err)
		}
	}

	return newResponse(req.SessionID, audio.Bytes(), format, requestID, false), nil
}

// speak 建立连接并合成一轮，返回该轮的 X-RequestId
func (s *Service) speak(ctx context.Context, doc string, format speechmodel.AudioFormat, sink io.Writer) (string, error) {
	cfg := speechmodel.SynthesizerConfig{}
	if s.config != nil {
		cfg = *s.config
	}
	cfg.AudioFormat = format

	if cfg.Timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
	}

	synth, err := s.pool.Connect(ctx, &cfg)
	if err != nil {
		return "", err
	}
	defer synth.Close()

	requestID, err := synth.SynthesizeTurn(ctx, doc, sink)
	if err != nil {
		glog.Errorf("[TTS] synthesis on %s failed: %v", synth.ConnectionID(), err)
		return "", err
	}
	return requestID, nil
}

func (s *Service) format(requested speechmodel.AudioFormat) speechmodel.AudioFormat {
	if requested != "" {
		return requested
	}
	if s.config != nil && s.config.AudioFormat != "" {
		return s.config.AudioFormat
	}
	return speechmodel.DefaultAudioFormat
}

func newResponse(sessionID string, data []byte, format speechmodel.AudioFormat, requestID string, cached bool) *speechmodel.TTSResponse {
	return &speechmodel.TTSResponse{
		SessionID: sessionID,
		AudioData: data,
		Format:    format,
		Size:      len(data),
		RequestID: requestID,
		Cached:    cached,
		CreatedAt: time.Now(),
	}
}

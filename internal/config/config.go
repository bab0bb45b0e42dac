package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
	"github.com/cassight/aspeak/internal/service/ssml"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Speech speechmodel.SynthesizerConfig
	// Text 默认文本参数，请求未设置的字段由此补全，可能为 nil
	Text  *ssml.TextOptions
	Cache CacheConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// CacheConfig 描述音频缓存配置，Path 为空表示不启用。
type CacheConfig struct {
	Path string
}

// Enabled 表示是否启用缓存
func (c CacheConfig) Enabled() bool {
	return c.Path != ""
}

// Load 从 ASPEAK_PROFILE 指向的配置文件与环境变量加载配置，环境变量优先。
func Load() (*Config, error) {
	return LoadWithProfile(strings.TrimSpace(os.Getenv("ASPEAK_PROFILE")))
}

// LoadWithProfile 使用指定的配置文件加载配置，path 为空时只读环境变量。
func LoadWithProfile(path string) (*Config, error) {
	profile := &Profile{}
	if path != "" {
		var err error
		if profile, err = LoadProfile(path); err != nil {
			return nil, err
		}
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig(profile)
	if err != nil {
		return nil, err
	}

	text, err := profile.TextOptions()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Speech: speech,
		Text:   text,
		Cache:  CacheConfig{Path: getEnvOrDefault("ASPEAK_CACHE_PATH", "")},
	}, nil
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadSpeechConfig(profile *Profile) (speechmodel.SynthesizerConfig, error) {
	// 解析超时设置
	timeout, err := parseOptionalIntEnv("ASPEAK_TIMEOUT")
	if err != nil {
		return speechmodel.SynthesizerConfig{}, err
	}
	timeoutSeconds := 30 // 默认30秒
	if timeout != nil {
		if *timeout < 0 {
			return speechmodel.SynthesizerConfig{}, fmt.Errorf("invalid ASPEAK_TIMEOUT value %d: must not be negative", *timeout)
		}
		timeoutSeconds = *timeout
	}

	maxRetries := 3
	if retries, err := parseOptionalIntEnv("ASPEAK_MAX_RETRIES"); err != nil {
		return speechmodel.SynthesizerConfig{}, err
	} else if retries != nil {
		if *retries < 1 {
			maxRetries = 1
		} else {
			maxRetries = *retries
		}
	}

	format, err := speechmodel.ParseAudioFormat(getEnvOrDefault("ASPEAK_FORMAT", profile.Output.Format))
	if err != nil {
		return speechmodel.SynthesizerConfig{}, err
	}

	return speechmodel.SynthesizerConfig{
		Endpoint:    getEnvOrDefault("ASPEAK_ENDPOINT", profile.Auth.Endpoint),
		Region:      getEnvOrDefault("ASPEAK_REGION", profile.Auth.Region),
		Key:         getEnvOrDefault("ASPEAK_KEY", profile.Auth.Key),
		Token:       getEnvOrDefault("ASPEAK_TOKEN", profile.Auth.Token),
		AudioFormat: format,
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		MaxRetries:  maxRetries,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(defaultValue)
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

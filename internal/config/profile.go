package config

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/cassight/aspeak/internal/service/ssml"
)

// Profile 对应 TOML 配置文件
type Profile struct {
	Auth   AuthSection    `toml:"auth"`
	Text   map[string]any `toml:"text"`
	Output OutputSection  `toml:"output"`
}

// AuthSection 连接与鉴权
type AuthSection struct {
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Key      string `toml:"key"`
	Token    string `toml:"token"`
}

// OutputSection 输出设置
type OutputSection struct {
	Format string `toml:"format"`
}

// LoadProfile 读取并解析配置文件，未知的键视为错误
func LoadProfile(path string) (*Profile, error) {
	var profile Profile
	meta, err := toml.DecodeFile(path, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("profile %s: unknown key %q", path, undecoded[0].String())
	}
	return &profile, nil
}

// TextOptions 校验 [text] 段并转换为默认文本参数，段为空时返回 nil
func (p *Profile) TextOptions() (*ssml.TextOptions, error) {
	if p == nil || len(p.Text) == 0 {
		return nil, nil
	}

	for key := range p.Text {
		if !slices.Contains(ssml.OptionKeys(), key) {
			return nil, fmt.Errorf("profile [text]: unknown key %q", key)
		}
	}

	opts, err := ssml.FromMap(p.Text)
	if err != nil {
		return nil, fmt.Errorf("profile [text]: %w", err)
	}
	return opts, nil
}

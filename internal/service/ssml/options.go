package ssml

import (
	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

// TextOptions 经过校验的合成请求。
//
// 字段不可导出，只能通过 NewTextOptions、FromMap 构造，
// 因此 style_degree 越界或 pitch/rate 未规范化的值不可能存在。
// 构造完成后不可变，WithText 与 Merge 均返回副本。
type TextOptions struct {
	text        *string
	voice       *string
	locale      *string
	style       *string
	role        *speechmodel.Role
	styleDegree *float32
	pitch       *string
	rate        *string
}

// Config 强类型构造参数，nil 字段表示未设置
type Config struct {
	Voice       *string
	Locale      *string
	Style       *string
	Role        *speechmodel.Role
	StyleDegree *float32
	Pitch       *string
	Rate        *string
}

// NewTextOptions 使用必填文本与可选参数构造 TextOptions
func NewTextOptions(text string, cfg Config) (*TextOptions, error) {
	opts := &TextOptions{
		text:   ptr(text),
		voice:  copyPtr(cfg.Voice),
		style:  copyPtr(cfg.Style),
		locale: copyPtr(cfg.Locale),
	}

	if cfg.Role != nil {
		if !cfg.Role.Valid() {
			return nil, newValidationError("role", string(*cfg.Role), "unknown role preset")
		}
		opts.role = copyPtr(cfg.Role)
	}

	if cfg.StyleDegree != nil {
		if err := checkStyleDegree(*cfg.StyleDegree); err != nil {
			return nil, err
		}
		opts.styleDegree = copyPtr(cfg.StyleDegree)
	}

	if cfg.Pitch != nil {
		pitch, err := ParsePitch(*cfg.Pitch)
		if err != nil {
			return nil, err
		}
		opts.pitch = &pitch
	}

	if cfg.Rate != nil {
		rate, err := ParseRate(*cfg.Rate)
		if err != nil {
			return nil, err
		}
		opts.rate = &rate
	}

	return opts, nil
}

// Text 返回待合成文本
func (o *TextOptions) Text() (string, bool) { return get(o.text) }

// Voice 返回声音名称
func (o *TextOptions) Voice() (string, bool) { return get(o.voice) }

// Locale 返回语言区域，仅做透传
func (o *TextOptions) Locale() (string, bool) { return get(o.locale) }

// Style 返回说话风格
func (o *TextOptions) Style() (string, bool) { return get(o.style) }

// Role 返回说话角色
func (o *TextOptions) Role() (speechmodel.Role, bool) { return get(o.role) }

// StyleDegree 返回样式强度
func (o *TextOptions) StyleDegree() (float32, bool) { return get(o.styleDegree) }

// Pitch 返回规范化后的音高
func (o *TextOptions) Pitch() (string, bool) { return get(o.pitch) }

// Rate 返回规范化后的语速
func (o *TextOptions) Rate() (string, bool) { return get(o.rate) }

// WithText 返回替换文本后的副本
func (o *TextOptions) WithText(text string) *TextOptions {
	clone := o.clone()
	clone.text = ptr(text)
	return clone
}

// Merge 用 defaults 补全未设置的字段，显式设置的值优先
func (o *TextOptions) Merge(defaults *TextOptions) *TextOptions {
	merged := o.clone()
	if defaults == nil {
		return merged
	}

	if merged.text == nil {
		merged.text = copyPtr(defaults.text)
	}
	if merged.voice == nil {
		merged.voice = copyPtr(defaults.voice)
	}
	if merged.locale == nil {
		merged.locale = copyPtr(defaults.locale)
	}
	if merged.style == nil {
		merged.style = copyPtr(defaults.style)
	}
	if merged.role == nil {
		merged.role = copyPtr(defaults.role)
	}
	if merged.styleDegree == nil {
		merged.styleDegree = copyPtr(defaults.styleDegree)
	}
	if merged.pitch == nil {
		merged.pitch = copyPtr(defaults.pitch)
	}
	if merged.rate == nil {
		merged.rate = copyPtr(defaults.rate)
	}
	return merged
}

// SSML 编译为 SSML 文档，等价于 Interpolate(o)
func (o *TextOptions) SSML() (string, error) {
	return Interpolate(o)
}

func (o *TextOptions) clone() *TextOptions {
	if o == nil {
		return &TextOptions{}
	}
	return &TextOptions{
		text:        copyPtr(o.text),
		voice:       copyPtr(o.voice),
		locale:      copyPtr(o.locale),
		style:       copyPtr(o.style),
		role:        copyPtr(o.role),
		styleDegree: copyPtr(o.styleDegree),
		pitch:       copyPtr(o.pitch),
		rate:        copyPtr(o.rate),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func get[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

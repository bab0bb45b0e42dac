package ssml

import (
	"encoding/json"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

// 动态构造时识别的选项名
const (
	KeyText        = "text"
	KeyVoice       = "voice"
	KeyLocale      = "locale"
	KeyStyle       = "style"
	KeyRole        = "role"
	KeyStyleDegree = "style_degree"
	KeyPitch       = "pitch"
	KeyRate        = "rate"
)

// OptionKeys 返回 FromMap 会读取的全部键
func OptionKeys() []string {
	return []string{KeyText, KeyPitch, KeyRate, KeyStyle, KeyRole, KeyStyleDegree, KeyLocale, KeyVoice}
}

// FromMap 从键值映射构造 TextOptions。
//
// 只读取 OptionKeys 中的键，其余键被忽略；nil 值视为未设置。
// 类型不匹配或取值非法时返回指明字段的 *ValidationError，不会返回部分构造的结果。
func FromMap(options map[string]any) (*TextOptions, error) {
	opts := &TextOptions{}
	if len(options) == 0 {
		return opts, nil
	}

	var err error
	if opts.text, err = stringOption(options, KeyText); err != nil {
		return nil, err
	}

	if raw, err := stringOption(options, KeyPitch); err != nil {
		return nil, err
	} else if raw != nil {
		pitch, err := ParsePitch(*raw)
		if err != nil {
			return nil, err
		}
		opts.pitch = &pitch
	}

	if raw, err := stringOption(options, KeyRate); err != nil {
		return nil, err
	} else if raw != nil {
		rate, err := ParseRate(*raw)
		if err != nil {
			return nil, err
		}
		opts.rate = &rate
	}

	if opts.style, err = stringOption(options, KeyStyle); err != nil {
		return nil, err
	}

	if opts.role, err = roleOption(options); err != nil {
		return nil, err
	}

	if opts.styleDegree, err = styleDegreeOption(options); err != nil {
		return nil, err
	}

	// locale 只做透传，不根据区域推断默认声音
	if opts.locale, err = stringOption(options, KeyLocale); err != nil {
		return nil, err
	}

	if opts.voice, err = stringOption(options, KeyVoice); err != nil {
		return nil, err
	}

	return opts, nil
}

func stringOption(options map[string]any, key string) (*string, error) {
	raw, ok := options[key]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case string:
		return &v, nil
	default:
		return nil, newValidationError(key, raw, "expected a string, got %T", raw)
	}
}

func roleOption(options map[string]any) (*speechmodel.Role, error) {
	raw, ok := options[KeyRole]
	if !ok || raw == nil {
		return nil, nil
	}

	var name string
	switch v := raw.(type) {
	case speechmodel.Role:
		name = string(v)
	case string:
		name = v
	default:
		return nil, newValidationError(KeyRole, raw, "expected a role name, got %T", raw)
	}

	role, err := speechmodel.ParseRole(name)
	if err != nil {
		return nil, newValidationError(KeyRole, raw, "%v", err)
	}
	return &role, nil
}

func styleDegreeOption(options map[string]any) (*float32, error) {
	raw, ok := options[KeyStyleDegree]
	if !ok || raw == nil {
		return nil, nil
	}

	degree, ok := toFloat32(raw)
	if !ok {
		return nil, newValidationError(KeyStyleDegree, raw, "expected a number, got %T", raw)
	}
	if err := checkStyleDegree(degree); err != nil {
		return nil, err
	}
	return &degree, nil
}

func toFloat32(raw any) (float32, bool) {
	switch v := raw.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int8:
		return float32(v), true
	case int16:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	case uint:
		return float32(v), true
	case uint8:
		return float32(v), true
	case uint16:
		return float32(v), true
	case uint32:
		return float32(v), true
	case uint64:
		return float32(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return float32(f), true
	default:
		return 0, false
	}
}

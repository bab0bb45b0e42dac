package speech

import (
	"fmt"
	"strings"
)

// AudioFormat 合成服务支持的输出格式
type AudioFormat string

const (
	Audio16Khz32KBitrateMonoMP3  AudioFormat = "audio-16khz-32kbitrate-mono-mp3"
	Audio16Khz128KBitrateMonoMP3 AudioFormat = "audio-16khz-128kbitrate-mono-mp3"
	Audio24Khz48KBitrateMonoMP3  AudioFormat = "audio-24khz-48kbitrate-mono-mp3"
	Audio24Khz160KBitrateMonoMP3 AudioFormat = "audio-24khz-160kbitrate-mono-mp3"
	Audio48Khz192KBitrateMonoMP3 AudioFormat = "audio-48khz-192kbitrate-mono-mp3"
	Riff16Khz16BitMonoPCM        AudioFormat = "riff-16khz-16bit-mono-pcm"
	Riff24Khz16BitMonoPCM        AudioFormat = "riff-24khz-16bit-mono-pcm"
	Riff48Khz16BitMonoPCM        AudioFormat = "riff-48khz-16bit-mono-pcm"
	Raw16Khz16BitMonoPCM         AudioFormat = "raw-16khz-16bit-mono-pcm"
	Raw24Khz16BitMonoPCM         AudioFormat = "raw-24khz-16bit-mono-pcm"
	Ogg16Khz16BitMonoOpus        AudioFormat = "ogg-16khz-16bit-mono-opus"
	Ogg24Khz16BitMonoOpus        AudioFormat = "ogg-24khz-16bit-mono-opus"
	Ogg48Khz16BitMonoOpus        AudioFormat = "ogg-48khz-16bit-mono-opus"
	Webm16Khz16BitMonoOpus       AudioFormat = "webm-16khz-16bit-mono-opus"
	Webm24Khz16BitMonoOpus       AudioFormat = "webm-24khz-16bit-mono-opus"
)

// DefaultAudioFormat 未指定格式时使用的输出格式
const DefaultAudioFormat = Audio24Khz48KBitrateMonoMP3

var audioFormats = []AudioFormat{
	Audio16Khz32KBitrateMonoMP3,
	Audio16Khz128KBitrateMonoMP3,
	Audio24Khz48KBitrateMonoMP3,
	Audio24Khz160KBitrateMonoMP3,
	Audio48Khz192KBitrateMonoMP3,
	Riff16Khz16BitMonoPCM,
	Riff24Khz16BitMonoPCM,
	Riff48Khz16BitMonoPCM,
	Raw16Khz16BitMonoPCM,
	Raw24Khz16BitMonoPCM,
	Ogg16Khz16BitMonoOpus,
	Ogg24Khz16BitMonoOpus,
	Ogg48Khz16BitMonoOpus,
	Webm16Khz16BitMonoOpus,
	Webm24Khz16BitMonoOpus,
}

// AudioFormats 返回所有支持的输出格式
func AudioFormats() []AudioFormat {
	return append([]AudioFormat(nil), audioFormats...)
}

// ParseAudioFormat 解析输出格式名称，空值返回默认格式
func ParseAudioFormat(raw string) (AudioFormat, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return DefaultAudioFormat, nil
	}
	for _, f := range audioFormats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported audio format %q", raw)
}

// Extension 返回格式对应的文件扩展名（不含点）
func (f AudioFormat) Extension() string {
	name := string(f)
	switch {
	case strings.HasSuffix(name, "-mp3"):
		return "mp3"
	case strings.HasPrefix(name, "riff-"):
		return "wav"
	case strings.HasPrefix(name, "raw-"):
		return "pcm"
	case strings.HasPrefix(name, "ogg-"):
		return "ogg"
	case strings.HasPrefix(name, "webm-"):
		return "webm"
	default:
		return "bin"
	}
}

// ContentType 返回格式对应的 MIME 类型
func (f AudioFormat) ContentType() string {
	switch f.Extension() {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	case "webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}

func (f AudioFormat) String() string {
	return string(f)
}

package speech

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
	"github.com/cassight/aspeak/internal/service/ssml"
)

// memoryCache 内存实现的 AudioCache
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	formats map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, formats: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memoryCache) Put(_ context.Context, key, format string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), data...)
	c.formats[key] = format
	return nil
}

func mustOptions(t *testing.T, values map[string]any) *ssml.TextOptions {
	t.Helper()
	opts, err := ssml.FromMap(values)
	if err != nil {
		t.Fatalf("FromMap(%v) error = %v", values, err)
	}
	return opts
}

func TestServiceCompileMergesDefaults(t *testing.T) {
	defaults := mustOptions(t, map[string]any{"voice": "zh-CN-XiaoxiaoNeural", "rate": "fast"})
	svc := NewService(&speechmodel.SynthesizerConfig{}, WithDefaults(defaults))

	doc, err := svc.Compile(mustOptions(t, map[string]any{"text": "你好", "rate": "slow"}))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(doc, `<voice name="zh-CN-XiaoxiaoNeural">`) {
		t.Errorf("default voice missing: %s", doc)
	}
	if !strings.Contains(doc, `rate="slow"`) || strings.Contains(doc, `rate="fast"`) {
		t.Errorf("request rate should win over default: %s", doc)
	}
	if svc.Defaults() != defaults {
		t.Error("Defaults() should return configured defaults")
	}
}

func TestServiceCompileMissingText(t *testing.T) {
	svc := NewService(&speechmodel.SynthesizerConfig{})

	if _, err := svc.Compile(nil); !errors.Is(err, ssml.ErrMissingText) {
		t.Errorf("Compile(nil) error = %v, want ErrMissingText", err)
	}
	if _, err := svc.Compile(mustOptions(t, map[string]any{"voice": "v"})); !errors.Is(err, ssml.ErrMissingText) {
		t.Errorf("Compile() error = %v, want ErrMissingText", err)
	}
}

func TestServiceSpeakText(t *testing.T) {
	var received string
	srv := newFakeServer(t, func(conn *websocket.Conn, requestID string, doc string) {
		received = doc
		streamTurn("audio")(conn, requestID, doc)
	})

	svc := NewService(srv.config(""), WithConnectionPool(testPool()))
	defer svc.Cleanup()

	var audio bytes.Buffer
	if err := svc.SpeakText(context.Background(), mustOptions(t, map[string]any{"text": "hello"}), "", &audio); err != nil {
		t.Fatalf("SpeakText() error = %v", err)
	}
	if audio.String() != "audio" {
		t.Errorf("audio = %q", audio.String())
	}
	if !strings.Contains(received, ">hello</prosody>") {
		t.Errorf("server received %q", received)
	}
}

func TestServiceSynthesizeSpeechUsesCache(t *testing.T) {
	srv := newFakeServer(t, streamTurn("ab", "cd"))
	cache := newMemoryCache()

	svc := NewService(srv.config(speechmodel.Ogg24Khz16BitMonoOpus), WithConnectionPool(testPool()), WithCache(cache))
	defer svc.Cleanup()

	req := &speechmodel.TTSRequest{SessionID: "s1", SSML: testSSML}

	first, err := svc.SynthesizeSpeech(context.Background(), req)
	if err != nil {
		t.Fatalf("SynthesizeSpeech() error = %v", err)
	}
	if string(first.AudioData) != "abcd" || first.Size != 4 || first.Cached {
		t.Errorf("first response = %+v", first)
	}
	if first.Format != speechmodel.Ogg24Khz16BitMonoOpus || first.SessionID != "s1" {
		t.Errorf("first response format/session = %q/%q", first.Format, first.SessionID)
	}
	if sent := <-srv.requestIDs; first.RequestID != sent {
		t.Errorf("first request id = %q, server saw %q", first.RequestID, sent)
	}

	second, err := svc.SynthesizeSpeech(context.Background(), req)
	if err != nil {
		t.Fatalf("SynthesizeSpeech() error = %v", err)
	}
	if string(second.AudioData) != "abcd" || !second.Cached {
		t.Errorf("second response = %+v", second)
	}
	if got := srv.turns.Load(); got != 1 {
		t.Errorf("server turns = %d, want 1", got)
	}

	// 不同格式不共享缓存
	other := &speechmodel.TTSRequest{SSML: testSSML, Format: speechmodel.Riff16Khz16BitMonoPCM}
	third, err := svc.SynthesizeSpeech(context.Background(), other)
	if err != nil {
		t.Fatalf("SynthesizeSpeech() error = %v", err)
	}
	if third.Cached || third.Format != speechmodel.Riff16Khz16BitMonoPCM {
		t.Errorf("third response = %+v", third)
	}
	if got := srv.turns.Load(); got != 2 {
		t.Errorf("server turns = %d, want 2", got)
	}
	if len(cache.entries) != 2 {
		t.Errorf("cache entries = %d, want 2", len(cache.entries))
	}
}

func TestServiceSynthesizeSpeechRejectsEmpty(t *testing.T) {
	svc := NewService(&speechmodel.SynthesizerConfig{Key: "k"})

	for _, req := range []*speechmodel.TTSRequest{nil, {SSML: "  "}} {
		if _, err := svc.SynthesizeSpeech(context.Background(), req); err == nil {
			t.Errorf("SynthesizeSpeech(%+v) expected error", req)
		}
	}
}

func TestServiceSynthesizeSpeechEmptyAudio(t *testing.T) {
	srv := newFakeServer(t, streamTurn())

	svc := NewService(srv.config(""), WithConnectionPool(testPool()))
	defer svc.Cleanup()

	if _, err := svc.SynthesizeSpeech(context.Background(), &speechmodel.TTSRequest{SSML: testSSML}); err == nil {
		t.Error("expected error for empty audio")
	}
}

func TestServiceFormat(t *testing.T) {
	tests := []struct {
		name      string
		config    *speechmodel.SynthesizerConfig
		requested speechmodel.AudioFormat
		want      speechmodel.AudioFormat
	}{
		{name: "nil config", config: nil, want: speechmodel.DefaultAudioFormat},
		{name: "configured", config: &speechmodel.SynthesizerConfig{AudioFormat: speechmodel.Webm24Khz16BitMonoOpus}, want: speechmodel.Webm24Khz16BitMonoOpus},
		{
			name:      "requested wins",
			config:    &speechmodel.SynthesizerConfig{AudioFormat: speechmodel.Webm24Khz16BitMonoOpus},
			requested: speechmodel.Raw16Khz16BitMonoPCM,
			want:      speechmodel.Raw16Khz16BitMonoPCM,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.config)
			if got := svc.format(tt.requested); got != tt.want {
				t.Errorf("format(%q) = %q, want %q", tt.requested, got, tt.want)
			}
		})
	}

	if len(NewService(nil).Formats()) != len(speechmodel.AudioFormats()) {
		t.Error("Formats() should list every audio format")
	}
}

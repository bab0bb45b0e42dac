package speech

import (
	"bytes"
	"strings"
	"testing"
)

// TestTextMessageRoundTrip 测试文本帧编解码
func TestTextMessageRoundTrip(t *testing.T) {
	body := []byte(`<speak>hello</speak>`)
	msg := NewMessage(PathSSML, "abc123", "application/ssml+xml", body)

	encoded := EncodeTextMessage(msg)
	if !strings.HasPrefix(string(encoded), "X-RequestId:abc123\r\nX-Timestamp:") {
		t.Fatalf("unexpected header order: %q", encoded)
	}
	if !bytes.HasSuffix(encoded, append([]byte("Path:ssml\r\n\r\n"), body...)) {
		t.Fatalf("unexpected frame tail: %q", encoded)
	}

	decoded, err := DecodeTextMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeTextMessage() error = %v", err)
	}
	if decoded.Path() != PathSSML {
		t.Errorf("Path() = %q, want %q", decoded.Path(), PathSSML)
	}
	if decoded.RequestID() != "abc123" {
		t.Errorf("RequestID() = %q, want abc123", decoded.RequestID())
	}
	if decoded.Get("content-type") != "application/ssml+xml" {
		t.Errorf("Get(content-type) = %q", decoded.Get("content-type"))
	}
	if !bytes.Equal(decoded.Body, body) {
		t.Errorf("Body = %q, want %q", decoded.Body, body)
	}
}

// TestNewMessageWithoutRequestID speech.config 消息不携带请求 ID
func TestNewMessageWithoutRequestID(t *testing.T) {
	msg := NewMessage(PathSpeechConfig, "", "", nil)
	if len(msg.Headers) != 2 {
		t.Fatalf("headers = %v, want timestamp and path only", msg.Headers)
	}
	if msg.Headers[0].Name != HeaderTimestamp || msg.Headers[1].Name != HeaderPath {
		t.Errorf("unexpected headers %v", msg.Headers)
	}
}

// TestBinaryMessageRoundTrip 测试二进制帧编解码
func TestBinaryMessageRoundTrip(t *testing.T) {
	audio := []byte{0x00, 0xff, 0x10, 0x20, 0x0d, 0x0a}
	msg := &Message{
		Headers: []Header{{Name: HeaderRequestID, Value: "r1"}, {Name: HeaderPath, Value: PathAudio}},
		Body:    audio,
	}

	encoded, err := EncodeBinaryMessage(msg)
	if err != nil {
		t.Fatalf("EncodeBinaryMessage() error = %v", err)
	}
	headerLen := int(encoded[0])<<8 | int(encoded[1])
	if headerLen != len("X-RequestId:r1\r\nPath:audio\r\n") {
		t.Errorf("header length = %d", headerLen)
	}

	decoded, err := DecodeBinaryMessage(encoded)
	if err != nil {
		t.Fatalf("DecodeBinaryMessage() error = %v", err)
	}
	if decoded.Path() != PathAudio || decoded.RequestID() != "r1" {
		t.Errorf("decoded headers = %v", decoded.Headers)
	}
	if !bytes.Equal(decoded.Body, audio) {
		t.Errorf("Body = %v, want %v", decoded.Body, audio)
	}
}

// TestDecodeMalformedFrames 测试非法帧
func TestDecodeMalformedFrames(t *testing.T) {
	tests := []struct {
		name   string
		decode func() error
	}{
		{
			name: "text without terminator",
			decode: func() error {
				_, err := DecodeTextMessage([]byte("Path:turn.end\r\n"))
				return err
			},
		},
		{
			name: "text header without colon",
			decode: func() error {
				_, err := DecodeTextMessage([]byte("Path turn.end\r\n\r\n"))
				return err
			},
		},
		{
			name: "binary too short",
			decode: func() error {
				_, err := DecodeBinaryMessage([]byte{0x00})
				return err
			},
		},
		{
			name: "binary truncated header",
			decode: func() error {
				_, err := DecodeBinaryMessage([]byte{0x00, 0x20, 'P'})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

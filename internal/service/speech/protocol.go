package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// 消息路径
const (
	PathSpeechConfig  = "speech.config"
	PathSSML          = "ssml"
	PathTurnStart     = "turn.start"
	PathResponse      = "response"
	PathAudio         = "audio"
	PathAudioMetadata = "audio.metadata"
	PathTurnEnd       = "turn.end"
)

// 消息头名称
const (
	HeaderRequestID   = "X-RequestId"
	HeaderTimestamp   = "X-Timestamp"
	HeaderContentType = "Content-Type"
	HeaderPath        = "Path"
)

const (
	headerSeparator = "\r\n"
	bodySeparator   = "\r\n\r\n"
	timestampLayout = "2006-01-02T15:04:05.000Z"
	maxHeaderLength = 0xFFFF
)

// Header 单个消息头，按写入顺序保存
type Header struct {
	Name  string
	Value string
}

// Message websocket 消息：若干消息头加消息体
type Message struct {
	Headers []Header
	Body    []byte
}

// NewMessage 创建消息，头部顺序固定为 X-RequestId、X-Timestamp、Content-Type、Path
func NewMessage(path, requestID, contentType string, body []byte) *Message {
	msg := &Message{Body: body}
	if requestID != "" {
		msg.Headers = append(msg.Headers, Header{Name: HeaderRequestID, Value: requestID})
	}
	msg.Headers = append(msg.Headers, Header{Name: HeaderTimestamp, Value: time.Now().UTC().Format(timestampLayout)})
	if contentType != "" {
		msg.Headers = append(msg.Headers, Header{Name: HeaderContentType, Value: contentType})
	}
	msg.Headers = append(msg.Headers, Header{Name: HeaderPath, Value: path})
	return msg
}

// Get 按名称读取消息头（不区分大小写），不存在时返回空串
func (m *Message) Get(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Path 返回消息路径
func (m *Message) Path() string {
	return m.Get(HeaderPath)
}

// RequestID 返回消息所属的请求 ID
func (m *Message) RequestID() string {
	return m.Get(HeaderRequestID)
}

func (m *Message) encodeHeaders() []byte {
	var buf bytes.Buffer
	for _, h := range m.Headers {
		buf.WriteString(h.Name)
		buf.WriteByte(':')
		buf.WriteString(h.Value)
		buf.WriteString(headerSeparator)
	}
	return buf.Bytes()
}

// EncodeTextMessage 编码文本帧：消息头、空行、消息体
func EncodeTextMessage(msg *Message) []byte {
	buf := bytes.NewBuffer(msg.encodeHeaders())
	buf.WriteString(headerSeparator)
	buf.Write(msg.Body)
	return buf.Bytes()
}

// DecodeTextMessage 解码文本帧
func DecodeTextMessage(data []byte) (*Message, error) {
	idx := bytes.Index(data, []byte(bodySeparator))
	if idx < 0 {
		return nil, fmt.Errorf("text frame without header terminator")
	}

	headers, err := parseHeaders(data[:idx])
	if err != nil {
		return nil, err
	}

	return &Message{Headers: headers, Body: data[idx+len(bodySeparator):]}, nil
}

// EncodeBinaryMessage 编码二进制帧：2字节大端头长度、消息头、音频数据
func EncodeBinaryMessage(msg *Message) ([]byte, error) {
	headers := msg.encodeHeaders()
	if len(headers) > maxHeaderLength {
		return nil, fmt.Errorf("binary frame header too long: %d bytes", len(headers))
	}

	buf := bytes.NewBuffer(make([]byte, 0, 2+len(headers)+len(msg.Body)))
	lengthBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lengthBytes, uint16(len(headers)))
	buf.Write(lengthBytes)
	buf.Write(headers)
	buf.Write(msg.Body)
	return buf.Bytes(), nil
}

// DecodeBinaryMessage 解码二进制帧
func DecodeBinaryMessage(data []byte) (*Message, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("binary frame too short: got %d, need 2", len(data))
	}

	headerLength := int(binary.BigEndian.Uint16(data[:2]))
	if len(data) < 2+headerLength {
		return nil, fmt.Errorf("binary frame truncated: header length %d, frame %d", headerLength, len(data))
	}

	headers, err := parseHeaders(data[2 : 2+headerLength])
	if err != nil {
		return nil, err
	}

	return &Message{Headers: headers, Body: data[2+headerLength:]}, nil
}

func parseHeaders(block []byte) ([]Header, error) {
	var headers []Header
	for _, line := range strings.Split(string(block), headerSeparator) {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header line %q", line)
		}
		headers = append(headers, Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return headers, nil
}

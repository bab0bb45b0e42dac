package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

// ErrConnectionClosed 连接已关闭或因读取超时而不可再用
var ErrConnectionClosed = errors.New("synthesis connection closed")

// CloseError 服务端以关闭帧结束连接，例如 SSML 非法时返回 1007
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("synthesis connection closed by server (code %d): %s", e.Code, e.Reason)
}

// Synthesizer 一条已完成 speech.config 握手的合成连接
type Synthesizer struct {
	conn         *websocket.Conn
	pool         *ConnectionPool
	connectionID string
	format       speechmodel.AudioFormat
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

type speechConfigPayload struct {
	Context struct {
		Synthesis struct {
			Audio struct {
				MetadataOptions struct {
					SentenceBoundaryEnabled string `json:"sentenceBoundaryEnabled"`
					WordBoundaryEnabled     string `json:"wordBoundaryEnabled"`
				} `json:"metadataoptions"`
				OutputFormat string `json:"outputFormat"`
			} `json:"audio"`
		} `json:"synthesis"`
	} `json:"context"`
}

type turnMetadata struct {
	Context struct {
		ServiceTag string `json:"serviceTag"`
	} `json:"context"`
}

// Connect 使用默认连接池建立合成连接
func Connect(ctx context.Context, cfg *speechmodel.SynthesizerConfig) (*Synthesizer, error) {
	options := DefaultConnectionPoolOptions()
	if cfg != nil && cfg.MaxRetries > 0 {
		options.MaxRetries = cfg.MaxRetries
	}
	return NewConnectionPool(options).Connect(ctx, cfg)
}

// Connect 建立合成连接并发送 speech.config
func (cp *ConnectionPool) Connect(ctx context.Context, cfg *speechmodel.SynthesizerConfig) (*Synthesizer, error) {
	header, err := resolveAuthHeader(cfg)
	if err != nil {
		return nil, err
	}

	format := cfg.AudioFormat
	if format == "" {
		format = speechmodel.DefaultAudioFormat
	}

	connectionID := newConnectionID()
	wsURL, err := FormatEndpointURL(ResolveEndpoint(cfg), connectionID)
	if err != nil {
		return nil, err
	}

	conn, err := cp.ConnectWithRetry(ctx, wsURL, header, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to synthesis service: %w", err)
	}

	s := &Synthesizer{
		conn:         conn,
		pool:         cp,
		connectionID: connectionID,
		format:       format,
		writeTimeout: cp.options.WriteTimeout,
	}

	if err := s.sendSpeechConfig(); err != nil {
		s.Close()
		return nil, err
	}

	glog.V(1).Infof("[TTS] connected %s format=%s", connectionID, format)
	return s, nil
}

// ConnectionID 返回连接 ID
func (s *Synthesizer) ConnectionID() string {
	return s.connectionID
}

// Format 返回该连接的输出格式
func (s *Synthesizer) Format() speechmodel.AudioFormat {
	return s.format
}

func (s *Synthesizer) sendSpeechConfig() error {
	var payload speechConfigPayload
	payload.Context.Synthesis.Audio.MetadataOptions.SentenceBoundaryEnabled = "false"
	payload.Context.Synthesis.Audio.MetadataOptions.WordBoundaryEnabled = "false"
	payload.Context.Synthesis.Audio.OutputFormat = string(s.format)

	body, err := sonic.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("failed to marshal speech.config: %w", err)
	}

	msg := NewMessage(PathSpeechConfig, "", "application/json; charset=utf-8", body)
	if err := s.write(EncodeTextMessage(msg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

// Synthesize 发送一份 SSML 文档，并把该请求的音频按到达顺序写入 sink。
// 收到 turn.end 后返回；同一连接上的调用串行执行。
func (s *Synthesizer) Synthesize(ctx context.Context, ssml string, sink io.Writer) error {
	_, err := s.SynthesizeTurn(ctx, ssml, sink)
	return err
}

// SynthesizeTurn 与 Synthesize 相同，额外返回本轮 ssml 消息使用的 X-RequestId。
// 本轮中途失败（解码错误、sink 错误、读取错误）后连接不再可用。
func (s *Synthesizer) SynthesizeTurn(ctx context.Context, ssml string, sink io.Writer) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrConnectionClosed
	}

	requestID := newRequestID()
	msg := NewMessage(PathSSML, requestID, "application/ssml+xml", []byte(ssml))
	if err := s.write(EncodeTextMessage(msg)); err != nil {
		s.markClosed()
		return "", fmt.Errorf("failed to send ssml: %w", err)
	}

	stop := s.watch(ctx)
	defer stop()

	var received int
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.markClosed()
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", readError(err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			frame, err := DecodeBinaryMessage(data)
			if err != nil {
				s.markClosed()
				return "", fmt.Errorf("failed to decode audio frame: %w", err)
			}
			if frame.Path() != PathAudio || !sameRequest(frame, requestID) || len(frame.Body) == 0 {
				continue
			}
			if _, err := sink.Write(frame.Body); err != nil {
				s.markClosed()
				return "", fmt.Errorf("audio sink failed: %w", err)
			}
			received += len(frame.Body)

		case websocket.TextMessage:
			frame, err := DecodeTextMessage(data)
			if err != nil {
				s.markClosed()
				return "", fmt.Errorf("failed to decode text frame: %w", err)
			}
			if !sameRequest(frame, requestID) {
				continue
			}

			switch frame.Path() {
			case PathTurnEnd:
				glog.V(1).Infof("[TTS] request %s finished, %d bytes", requestID, received)
				return requestID, nil
			case PathTurnStart, PathResponse:
				logTurnMetadata(requestID, frame)
			case PathAudioMetadata:
				glog.V(2).Infof("[TTS] request %s metadata: %s", requestID, frame.Body)
			default:
				glog.V(2).Infof("[TTS] request %s unexpected path %q", requestID, frame.Path())
			}
		}
	}
}

// Close 关闭连接
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.pool != nil {
		s.pool.Release(s.connectionID)
		return nil
	}
	return s.conn.Close()
}

func (s *Synthesizer) markClosed() {
	s.closed = true
}

func (s *Synthesizer) write(data []byte) error {
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// watch 在 ctx 结束时打断阻塞的读取
func (s *Synthesizer) watch(ctx context.Context) func() {
	s.conn.SetReadDeadline(time.Time{})

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()
	return func() { close(done) }
}

func sameRequest(msg *Message, requestID string) bool {
	id := msg.RequestID()
	return id == "" || strings.EqualFold(id, requestID)
}

func readError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Code == websocket.CloseNormalClosure {
			return ErrConnectionClosed
		}
		return &CloseError{Code: closeErr.Code, Reason: closeErr.Text}
	}
	return fmt.Errorf("failed to read synthesis response: %w", err)
}

func logTurnMetadata(requestID string, msg *Message) {
	if !glog.V(2) || len(msg.Body) == 0 {
		return
	}
	var meta turnMetadata
	if err := sonic.Unmarshal(msg.Body, &meta); err != nil {
		glog.Warningf("[TTS] request %s: failed to decode %s payload: %v", requestID, msg.Path(), err)
		return
	}
	glog.Infof("[TTS] request %s %s serviceTag=%s", requestID, msg.Path(), meta.Context.ServiceTag)
}

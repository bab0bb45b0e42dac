package speech

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	speechmodel "github.com/cassight/aspeak/internal/model/speech"
)

const testKey = "test-key"

// turnHandler 收到一条 ssml 消息后模拟服务端的响应
type turnHandler func(conn *websocket.Conn, requestID string, ssml string)

// fakeServer 模拟合成服务端
type fakeServer struct {
	*httptest.Server
	handshakes atomic.Int32
	turns      atomic.Int32
	configs    chan string
	requestIDs chan string
	// allowAnonymous 为 true 时接受不带 key 的握手
	allowAnonymous atomic.Bool
	anonymous      atomic.Int32
}

func newFakeServer(t *testing.T, handle turnHandler) *fakeServer {
	t.Helper()

	fs := &fakeServer{configs: make(chan string, 16), requestIDs: make(chan string, 16)}
	upgrader := websocket.Upgrader{}

	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.handshakes.Add(1)
		switch key := r.Header.Get("Ocp-Apim-Subscription-Key"); {
		case key == "" && r.Header.Get("Authorization") == "" && fs.allowAnonymous.Load():
			fs.anonymous.Add(1)
		case key != testKey:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("X-ConnectionId") == "" {
			http.Error(w, "missing connection id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := DecodeTextMessage(data)
			if err != nil {
				return
			}

			switch msg.Path() {
			case PathSpeechConfig:
				fs.configs <- string(msg.Body)
			case PathSSML:
				fs.turns.Add(1)
				select {
				case fs.requestIDs <- msg.RequestID():
				default:
				}
				handle(conn, msg.RequestID(), string(msg.Body))
			}
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) config(format speechmodel.AudioFormat) *speechmodel.SynthesizerConfig {
	return &speechmodel.SynthesizerConfig{
		Endpoint:    "ws" + strings.TrimPrefix(fs.URL, "http"),
		Key:         testKey,
		AudioFormat: format,
	}
}

func testPool() *ConnectionPool {
	return NewConnectionPool(&ConnectionPoolOptions{
		ConnectionTimeout: 2 * time.Second,
		WriteTimeout:      2 * time.Second,
		MaxRetries:        3,
		RetryDelay:        10 * time.Millisecond,
	})
}

func sendText(conn *websocket.Conn, path, requestID, body string) error {
	msg := NewMessage(path, requestID, "application/json; charset=utf-8", []byte(body))
	return conn.WriteMessage(websocket.TextMessage, EncodeTextMessage(msg))
}

func sendAudio(conn *websocket.Conn, requestID string, audio []byte) error {
	msg := NewMessage(PathAudio, requestID, "audio/mpeg", audio)
	data, err := EncodeBinaryMessage(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// streamTurn 按正常顺序返回一轮合成结果
func streamTurn(chunks ...string) turnHandler {
	return func(conn *websocket.Conn, requestID string, _ string) {
		sendText(conn, PathTurnStart, requestID, `{"context":{"serviceTag":"tag"}}`)
		for _, chunk := range chunks {
			sendAudio(conn, requestID, []byte(chunk))
		}
		sendText(conn, PathTurnEnd, requestID, "{}")
	}
}

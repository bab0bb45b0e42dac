package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

// ConnectionManager 记录当前打开的合成连接
type ConnectionManager struct {
	connections map[string]*websocket.Conn
	mu          sync.RWMutex
}

// NewConnectionManager 创建连接管理器
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
	}
}

// AddConnection 添加连接
func (cm *ConnectionManager) AddConnection(connectionID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// 如果已存在连接，先关闭旧连接
	if oldConn, exists := cm.connections[connectionID]; exists {
		oldConn.Close()
	}

	cm.connections[connectionID] = conn
}

// GetConnection 获取连接
func (cm *ConnectionManager) GetConnection(connectionID string) (*websocket.Conn, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	conn, exists := cm.connections[connectionID]
	return conn, exists
}

// RemoveConnection 移除并关闭连接
func (cm *ConnectionManager) RemoveConnection(connectionID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[connectionID]; exists {
		conn.Close()
		delete(cm.connections, connectionID)
	}
}

// Len 返回当前连接数
func (cm *ConnectionManager) Len() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll 关闭所有连接
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for connectionID, conn := range cm.connections {
		conn.Close()
		delete(cm.connections, connectionID)
	}
}

// ConnectionPoolOptions 连接池配置选项
type ConnectionPoolOptions struct {
	ConnectionTimeout time.Duration // 握手超时时间
	WriteTimeout      time.Duration // 写入超时时间
	MaxRetries        int           // 最大尝试次数
	RetryDelay        time.Duration // 重试间隔基数，第 n 次重试等待 n*RetryDelay
}

// DefaultConnectionPoolOptions 默认连接池选项
func DefaultConnectionPoolOptions() *ConnectionPoolOptions {
	return &ConnectionPoolOptions{
		ConnectionTimeout: 30 * time.Second,
		WriteTimeout:      30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        time.Second,
	}
}

// ConnectionPool 负责建立合成连接并在失败时重试
type ConnectionPool struct {
	manager *ConnectionManager
	options *ConnectionPoolOptions
	dialer  *websocket.Dialer
}

// NewConnectionPool 创建连接池
func NewConnectionPool(options *ConnectionPoolOptions) *ConnectionPool {
	if options == nil {
		options = DefaultConnectionPoolOptions()
	}
	if options.MaxRetries < 1 {
		options.MaxRetries = 1
	}

	return &ConnectionPool{
		manager: NewConnectionManager(),
		options: options,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: options.ConnectionTimeout,
		},
	}
}

// GetManager 获取连接管理器
func (cp *ConnectionPool) GetManager() *ConnectionManager {
	return cp.manager
}

// ConnectWithRetry 带重试的连接建立，鉴权失败等不可重试错误直接返回
func (cp *ConnectionPool) ConnectWithRetry(ctx context.Context, url string, header http.Header, connectionID string) (*websocket.Conn, error) {
	var lastErr error

	for i := 0; i < cp.options.MaxRetries; i++ {
		conn, err := cp.connect(ctx, url, header, connectionID)
		if err == nil {
			return conn, nil
		}

		lastErr = err

		// 如果是上下文取消，直接返回
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryableError(err) {
			return nil, err
		}
		if i == cp.options.MaxRetries-1 {
			break
		}

		glog.Warningf("[TTS] connect attempt %d/%d failed: %v", i+1, cp.options.MaxRetries, err)

		retryDelay := time.Duration(i+1) * cp.options.RetryDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts, last error: %w", cp.options.MaxRetries, lastErr)
}

// connect 建立单次连接
func (cp *ConnectionPool) connect(ctx context.Context, url string, header http.Header, connectionID string) (*websocket.Conn, error) {
	conn, resp, err := cp.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, &HandshakeError{StatusCode: resp.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	cp.manager.AddConnection(connectionID, conn)
	return conn, nil
}

// Release 关闭连接并从管理器中移除
func (cp *ConnectionPool) Release(connectionID string) {
	cp.manager.RemoveConnection(connectionID)
}

// Cleanup 清理连接池
func (cp *ConnectionPool) Cleanup() {
	cp.manager.CloseAll()
}

// HandshakeError 服务端拒绝 websocket 握手
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("websocket handshake failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsRetryableError 判断错误是否可重试
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var handshakeErr *HandshakeError
	if errors.As(err, &handshakeErr) {
		// 4xx 为鉴权或参数问题，重试无意义
		return handshakeErr.StatusCode >= 500 || handshakeErr.StatusCode == http.StatusTooManyRequests
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return websocket.IsCloseError(closeErr, websocket.CloseAbnormalClosure, websocket.CloseGoingAway, websocket.CloseTryAgainLater)
	}

	// 其余为网络层错误，按临时错误处理
	return true
}

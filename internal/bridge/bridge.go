package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTimeout 请求在时限内未收到应答
var ErrTimeout = errors.New("跨端请求超时")

// Request 发往浏览器助手的请求（经 SSE 下发）
type Request struct {
	ID   string `json:"id"` // 相关性 ID，应答按它配对
	Kind string `json:"kind"`
}

// KindGetCode 请求编辑器中的当前代码
const KindGetCode = "get_code"

// CodeResult 代码获取应答
type CodeResult struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Bridge 请求/应答桥：本进程发起请求，浏览器助手通过 HTTP 回传应答
// 每个请求以 uuid 作相关性键，超时后挂起项被清理
type Bridge struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
	publish func(Request)
}

// New 创建桥。publish 负责把请求投递给对端（如 eventbus → SSE）
func New(publish func(Request)) *Bridge {
	return &Bridge{
		pending: make(map[string]chan json.RawMessage),
		publish: publish,
	}
}

// Do 发起一次请求并等待应答
func (b *Bridge) Do(ctx context.Context, kind string, timeout time.Duration) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan json.RawMessage, 1)

	b.mu.Lock()
	b.pending[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	if b.publish != nil {
		b.publish(Request{ID: id, Kind: kind})
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-ch:
		return payload, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolve 按相关性 ID 回填应答，无人等待时返回 false
func (b *Bridge) Resolve(id string, payload json.RawMessage) bool {
	b.mu.Lock()
	ch, ok := b.pending[id]
	if ok {
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}
	ch <- payload
	return true
}

// RequestCode 请求编辑器代码；超时降级为空结果，不向上传播
func (b *Bridge) RequestCode(ctx context.Context, timeout time.Duration) CodeResult {
	payload, err := b.Do(ctx, KindGetCode, timeout)
	if err != nil {
		slog.Debug("代码获取未应答，降级为空", "error", err)
		return CodeResult{}
	}

	var result CodeResult
	if err := json.Unmarshal(payload, &result); err != nil {
		slog.Warn("解析代码应答失败", "error", err)
		return CodeResult{}
	}
	return result
}

package main

import (
	"context"
	"sync/atomic"
	"time"
)

// renderSignal 渲染完成标志, 由渲染回调置位, 由遍历线程读取与复位
type renderSignal struct {
	rendered atomic.Bool
	wake     chan struct{}
}

func newRenderSignal() *renderSignal {
	return &renderSignal{wake: make(chan struct{}, 1)}
}

// Reset 清除标志以及未消费的唤醒
func (s *renderSignal) Reset() {
	s.rendered.Store(false)
	select {
	case <-s.wake:
	default:
	}
}

// Done 渲染完成回调
func (s *renderSignal) Done() {
	s.rendered.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *renderSignal) Rendered() bool {
	return s.rendered.Load()
}

// Wait 等待渲染完成, 每 interval 检查一次, 最长等待 timeout.
// 返回是否在超时前完成.
func (s *renderSignal) Wait(ctx context.Context, interval, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !s.rendered.Load() {
		select {
		case <-s.wake:
		case <-ticker.C:
		case <-deadline.C:
			return s.rendered.Load()
		case <-ctx.Done():
			return s.rendered.Load()
		}
	}
	return true
}

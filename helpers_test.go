package main

import (
	"io"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

type viewport struct {
	Center orb.Point
	Zoom   float64
}

// fakeRenderer 记录命令, 可选在 delay 后回调渲染完成
type fakeRenderer struct {
	main sync.Mutex

	mu          sync.Mutex
	complete    bool
	delay       time.Duration
	viewports   []viewport
	frames      []Frame
	interactive []bool
	callbacks   []func()
	onFrame     func(Frame)
}

func newFakeRenderer(complete bool, delay time.Duration) *fakeRenderer {
	return &fakeRenderer{complete: complete, delay: delay}
}

func (r *fakeRenderer) RunOnMain(f func()) {
	r.main.Lock()
	defer r.main.Unlock()
	f()
}

func (r *fakeRenderer) SetViewport(center orb.Point, zoom float64, animated bool) {
	r.mu.Lock()
	r.viewports = append(r.viewports, viewport{center, zoom})
	complete, delay := r.complete, r.delay
	cbs := append([]func(){}, r.callbacks...)
	r.mu.Unlock()

	if !complete {
		return
	}
	go func() {
		time.Sleep(delay)
		r.main.Lock()
		defer r.main.Unlock()
		for _, f := range cbs {
			f()
		}
	}()
}

func (r *fakeRenderer) OnRenderComplete(f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, f)
}

func (r *fakeRenderer) SetInteractionEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactive = append(r.interactive, enabled)
}

func (r *fakeRenderer) SetFrame(frame Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, frame)
	hook := r.onFrame
	r.mu.Unlock()
	if hook != nil {
		hook(frame)
	}
}

func (r *fakeRenderer) SetDebugOverlay(enabled bool) {}

func (r *fakeRenderer) Viewports() []viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]viewport{}, r.viewports...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var fastDrive = DriveOptions{
	PollInterval:  2 * time.Millisecond,
	RenderTimeout: 20 * time.Millisecond,
	PacingDelay:   time.Millisecond,
}

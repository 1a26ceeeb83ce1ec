package main

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultRenderTimeout = 500 * time.Millisecond
	DefaultPacingDelay   = 100 * time.Millisecond
)

// DriveOptions 单瓦片驱动参数
type DriveOptions struct {
	// WaitForRenders 开启后等待渲染完成, 否则固定间隔
	WaitForRenders bool
	PollInterval   time.Duration
	RenderTimeout  time.Duration
	PacingDelay    time.Duration
}

func (o DriveOptions) withDefaults() DriveOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = DefaultRenderTimeout
	}
	if o.PacingDelay < 0 {
		o.PacingDelay = 0
	}
	return o
}

// Progress 进度记录
type Progress struct {
	Seq       int64
	Tile      maptile.Tile
	Center    orb.Point
	TimedOut  bool
	// Cancelled 等待被 Stop 打断
	Cancelled bool
	Elapsed   time.Duration
}

// RenderDriver 将渲染器逐个移动到瓦片中心
type RenderDriver struct {
	renderer Renderer
	signal   *renderSignal
	opts     DriveOptions
	log      *logrus.Entry
	seq      int64

	lastCenter orb.Point
	lastZoom   float64
}

func NewRenderDriver(r Renderer, signal *renderSignal, opts DriveOptions, l *logrus.Entry) *RenderDriver {
	return &RenderDriver{
		renderer: r,
		signal:   signal,
		opts:     opts.withDefaults(),
		log:      l,
	}
}

// Drive 定位到瓦片并等待渲染（有上限）, 超时不重试
func (d *RenderDriver) Drive(ctx context.Context, t maptile.Tile) Progress {
	start := time.Now()
	center := CenterOf(BoundsForTile(t))
	zoom := float64(t.Z)

	// 复位与下发在同一渲染上下文中完成, 上一视口排队中的完成回调
	// 要么先执行被清除, 要么在视口切换后执行被丢弃
	d.renderer.RunOnMain(func() {
		d.signal.Reset()
		d.renderer.SetViewport(center, zoom, false)
	})
	d.lastCenter, d.lastZoom = center, zoom

	timedOut, cancelled := false, false
	if d.opts.WaitForRenders {
		if !d.signal.Wait(ctx, d.opts.PollInterval, d.opts.RenderTimeout) {
			cancelled = ctx.Err() != nil
			timedOut = !cancelled
		}
		RenderWait.Observe(time.Since(start).Seconds())
	} else {
		select {
		case <-time.After(d.opts.PacingDelay):
		case <-ctx.Done():
		}
	}

	d.seq++
	p := Progress{
		Seq:       d.seq,
		Tile:      t,
		Center:    center,
		TimedOut:  timedOut,
		Cancelled: cancelled,
		Elapsed:   time.Since(start),
	}

	TilesDriven.Inc()
	msg := fmt.Sprintf("#%d %s center(%.6f, %.6f), %dms", p.Seq, tileString(t), center[0], center[1], p.Elapsed.Milliseconds())
	switch {
	case timedOut:
		RenderTimeouts.Inc()
		d.log.Infof("%s timed out", msg)
	case cancelled:
		d.log.Infof("%s cancelled", msg)
	default:
		d.log.Info(msg)
	}
	return p
}

// LastViewport 最后一次下发的中心与级别
func (d *RenderDriver) LastViewport() (orb.Point, float64, bool) {
	return d.lastCenter, d.lastZoom, d.seq > 0
}

package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
)

// ErrRendererStopped 渲染循环已退出
var ErrRendererStopped = errors.New("renderer stopped")

// FetchRendererOptions 无界面渲染器参数
type FetchRendererOptions struct {
	Source    TileSource
	Store     TileStore
	Workers   int
	TimeDelay time.Duration
	Timeout   time.Duration
	Frame     Frame
}

type funcRun struct {
	f    func()
	done chan struct{}
}

// FetchRenderer 无界面渲染器: 拉取视口覆盖的瓦片并写入缓存.
// 所有视口状态只在渲染循环 (Run) 中读写.
type FetchRenderer struct {
	source    TileSource
	store     TileStore
	client    *http.Client
	workers   chan struct{}
	timeDelay time.Duration
	log       *logrus.Entry

	mainQueue chan funcRun
	mainDone  chan struct{}

	cbMu      sync.Mutex
	callbacks []func()

	frame       Frame
	center      orb.Point
	zoom        float64
	interactive bool
	debug       bool
	generation  uint64
}

var _ Renderer = (*FetchRenderer)(nil)

func NewFetchRenderer(opts FetchRendererOptions, l *logrus.Logger) *FetchRenderer {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FetchRenderer{
		source:      opts.Source,
		store:       opts.Store,
		client:      &http.Client{Timeout: opts.Timeout},
		workers:     make(chan struct{}, opts.Workers),
		timeDelay:   opts.TimeDelay,
		log:         l.WithField("component", "renderer"),
		mainQueue:   make(chan funcRun),
		mainDone:    make(chan struct{}),
		frame:       opts.Frame,
		interactive: true,
	}
}

// Run 渲染循环, 调用方所在 goroutine 即渲染上下文, 直到 ctx 结束
func (r *FetchRenderer) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(r.mainDone)

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-r.mainQueue:
			f.f()
			if f.done != nil {
				close(f.done)
			}
		}
	}
}

// RunOnMain 在渲染上下文中执行 f 并等待完成; 循环退出后直接返回.
// 不可重入, 不能在渲染上下文（包括完成回调）内调用.
func (r *FetchRenderer) RunOnMain(f func()) {
	done := make(chan struct{})
	select {
	case r.mainQueue <- funcRun{f: f, done: done}:
		<-done
	case <-r.mainDone:
		r.log.Debug(ErrRendererStopped)
	}
}

// goRunOnMain 异步投递到渲染上下文
func (r *FetchRenderer) goRunOnMain(f func()) {
	go func() {
		select {
		case r.mainQueue <- funcRun{f: f}:
		case <-r.mainDone:
		}
	}()
}

func (r *FetchRenderer) OnRenderComplete(f func()) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, f)
}

func (r *FetchRenderer) SetInteractionEnabled(enabled bool) {
	r.interactive = enabled
	r.log.Debugf("interaction enabled: %t", enabled)
}

func (r *FetchRenderer) SetFrame(frame Frame) {
	r.frame = frame
	r.log.Debugf("frame %dx%d", frame.Width, frame.Height)
}

func (r *FetchRenderer) SetDebugOverlay(enabled bool) {
	r.debug = enabled
}

// SetViewport 移动视口并异步渲染覆盖的瓦片
func (r *FetchRenderer) SetViewport(center orb.Point, zoom float64, animated bool) {
	r.center, r.zoom = center, zoom
	r.generation++
	gen := r.generation

	tiles := coverTiles(center, zoom, r.frame)
	if r.debug {
		for _, t := range tiles {
			b := BoundsForTile(t)
			r.log.Debugf("overlay %s sw(%.6f, %.6f) ne(%.6f, %.6f)", tileString(t), b.Min[0], b.Min[1], b.Max[0], b.Max[1])
		}
	}
	go r.render(gen, tiles)
}

func (r *FetchRenderer) render(gen uint64, tiles []maptile.Tile) {
	var wg sync.WaitGroup
	for _, t := range tiles {
		ok, err := r.store.Has(t)
		if err != nil {
			r.log.Debugf("cache lookup %s error, details: %s ~", tileString(t), err)
		}
		if ok {
			RendererTiles.WithLabelValues("cached").Inc()
			continue
		}
		r.workers <- struct{}{}
		if r.timeDelay > 0 {
			time.Sleep(r.timeDelay)
		}
		wg.Add(1)
		go func(t maptile.Tile) {
			defer func() {
				wg.Done()
				<-r.workers
			}()
			r.fetch(t)
		}(t)
	}
	wg.Wait()

	r.goRunOnMain(func() {
		if gen != r.generation {
			return
		}
		r.cbMu.Lock()
		cbs := append([]func(){}, r.callbacks...)
		r.cbMu.Unlock()
		for _, f := range cbs {
			f()
		}
	})
}

// fetch 瓦片加载器
func (r *FetchRenderer) fetch(t maptile.Tile) {
	start := time.Now()
	data, err := r.download(t)
	if err != nil {
		RendererTiles.WithLabelValues("failed").Inc()
		r.log.Debugf("fetch %s error, details: %s ~", tileString(t), err)
		return
	}
	if err := r.store.Put(Tile{T: t, C: data}); err != nil {
		RendererTiles.WithLabelValues("failed").Inc()
		r.log.Errorf("save %s error ~ %s", tileString(t), err)
		return
	}
	RendererTiles.WithLabelValues("fetched").Inc()
	r.log.Debugf("%s, %dms , %.2f kb", tileString(t), time.Since(start).Milliseconds(), float32(len(data))/1024.0)
}

func (r *FetchRenderer) download(t maptile.Tile) ([]byte, error) {
	url := r.source.GetTileURL(t)
	resp, err := r.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s status code: %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%s empty tile", url)
	}
	if r.source.Format != PBF {
		return body, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// coverTiles 视口覆盖的瓦片, 级别取 floor(zoom)
func coverTiles(center orb.Point, zoom float64, frame Frame) []maptile.Tile {
	z := maptile.Zoom(math.Max(ZoomMin, math.Min(ZoomMax, math.Floor(zoom))))
	n := math.Exp2(float64(z))
	cx, cy := PixelForPoint(center, z)
	w, h := float64(frame.Width)/2, float64(frame.Height)/2

	clamp := func(v float64) uint32 {
		return uint32(math.Max(0, math.Min(n-1, v)))
	}
	// 右下边界落在瓦片边线上时不含下一块
	minX, maxX := clamp(math.Floor((cx-w)/TileSize)), clamp(math.Ceil((cx+w)/TileSize)-1)
	minY, maxY := clamp(math.Floor((cy-h)/TileSize)), clamp(math.Ceil((cy+h)/TileSize)-1)
	if maxX < minX || maxY < minY {
		return nil
	}

	tiles := make([]maptile.Tile, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, maptile.Tile{X: x, Y: y, Z: z})
		}
	}
	return tiles
}

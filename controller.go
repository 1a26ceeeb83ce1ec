package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"
)

// ErrAlreadyRunning 已有遍历任务在运行
var ErrAlreadyRunning = errors.New("traversal already running")

// State 控制器状态
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ControllerOptions 控制器参数
type ControllerOptions struct {
	Drive DriveOptions
	// PrefetchFrame 预取时的小视口
	PrefetchFrame Frame
	// FreeFrame 结束后恢复的视口
	FreeFrame    Frame
	DebugOverlay bool
	ProgressBar  bool
}

// Status 遍历状态快照
type Status struct {
	State          string       `json:"state"`
	ID             string       `json:"id,omitempty"`
	Root           maptile.Tile `json:"root"`
	MaxZoom        maptile.Zoom `json:"maxZoom"`
	WaitForRenders bool         `json:"waitForRenders"`
	Total          int64        `json:"total"`
	Processed      int64        `json:"processed"`
	TimedOut       int64        `json:"timedOut"`
	Cancelled      bool         `json:"cancelled"`
}

// pass 一次遍历
type pass struct {
	id             string
	root           maptile.Tile
	maxZoom        maptile.Zoom
	waitForRenders bool
	total          int64
	cancel         context.CancelFunc
	done           chan struct{}

	processed int64
	timedOut  int64
	cancelled bool
}

// Controller 遍历控制器, 持有渲染标志与视口
type Controller struct {
	renderer Renderer
	signal   *renderSignal
	opts     ControllerOptions
	log      *logrus.Logger

	mu    sync.Mutex
	state State
	cur   *pass
	last  *pass
}

func NewController(r Renderer, opts ControllerOptions, l *logrus.Logger) *Controller {
	c := &Controller{
		renderer: r,
		signal:   newRenderSignal(),
		opts:     opts,
		log:      l,
	}
	r.OnRenderComplete(c.signal.Done)
	return c
}

// Start 开始一次遍历 (Idle -> Running)
func (c *Controller) Start(root maptile.Tile, maxZoom maptile.Zoom, waitForRenders bool) error {
	if err := ValidateRange(root, maxZoom); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Running {
		return ErrAlreadyRunning
	}

	id, err := shortid.Generate()
	if err != nil {
		return fmt.Errorf("generate pass id: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &pass{
		id:             id,
		root:           root,
		maxZoom:        maxZoom,
		waitForRenders: waitForRenders,
		total:          CountTiles(root, maxZoom),
		cancel:         cancel,
		done:           make(chan struct{}),
	}

	// 进入预取模式
	c.renderer.RunOnMain(func() {
		c.renderer.SetFrame(c.opts.PrefetchFrame)
		c.renderer.SetInteractionEnabled(false)
		c.renderer.SetDebugOverlay(c.opts.DebugOverlay)
	})

	c.state = Running
	c.cur = p
	TraversalRunning.Set(1)
	go c.run(ctx, p)
	return nil
}

// Stop 请求取消当前遍历, 立即返回
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running {
		return
	}
	c.cur.cancel()
}

// Toggle 切换模式, 返回切换后的状态
func (c *Controller) Toggle(root maptile.Tile, maxZoom maptile.Zoom, waitForRenders bool) (State, error) {
	if c.State() == Running {
		c.Stop()
		return Idle, nil
	}
	if err := c.Start(root, maxZoom, waitForRenders); err != nil {
		return c.State(), err
	}
	return Running, nil
}

// Wait 等待当前遍历结束并完成视口恢复
func (c *Controller) Wait() {
	c.mu.Lock()
	p := c.cur
	c.mu.Unlock()
	if p != nil {
		<-p.done
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status 当前或最近一次遍历的状态
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{State: c.state.String()}
	p := c.cur
	if p == nil {
		p = c.last
	}
	if p != nil {
		s.ID = p.id
		s.Root = p.root
		s.MaxZoom = p.maxZoom
		s.WaitForRenders = p.waitForRenders
		s.Total = p.total
		s.Processed = p.processed
		s.TimedOut = p.timedOut
		s.Cancelled = p.cancelled
	}
	return s
}

func (c *Controller) run(ctx context.Context, p *pass) {
	start := time.Now()
	l := c.log.WithField("pass", p.id)
	l.Infof("traversal from %s to zoom %d starting, %d tiles", tileString(p.root), p.maxZoom, p.total)

	opts := c.opts.Drive
	opts.WaitForRenders = p.waitForRenders
	driver := NewRenderDriver(c.renderer, c.signal, opts, l)

	var bar *pb.ProgressBar
	if c.opts.ProgressBar {
		bar = pb.New64(p.total).Prefix(fmt.Sprintf("Pass %s : ", p.id)).Postfix("\n")
		bar.SetRefreshRate(time.Second)
		bar.Start()
	}

	interrupted := false
	for t := range Enumerate(p.root, p.maxZoom) {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		progress := driver.Drive(ctx, t)
		interrupted = progress.Cancelled

		c.mu.Lock()
		p.processed = progress.Seq
		if progress.TimedOut {
			p.timedOut++
		}
		c.mu.Unlock()
		if bar != nil {
			bar.Increment()
		}
	}

	if bar != nil {
		bar.FinishPrint(fmt.Sprintf("Pass %s finished ~", p.id))
	}
	c.finish(driver, p, interrupted)

	if interrupted {
		l.Infof("traversal got canceled after %d tiles", p.processed)
	} else {
		l.Infof("traversal finished, %d tiles, %d timed out, %.3fs", p.processed, p.timedOut, time.Since(start).Seconds())
	}
}

// finish 恢复自由交互模式, 停在最后下发的中心与级别
func (c *Controller) finish(driver *RenderDriver, p *pass, interrupted bool) {
	center, zoom, ok := driver.LastViewport()
	if !ok {
		center, zoom = CenterOf(BoundsForTile(p.root)), float64(p.root.Z)
	}
	c.restore(center, zoom)

	c.mu.Lock()
	p.cancel()
	p.cancelled = interrupted
	c.state = Idle
	c.last = p
	c.cur = nil
	TraversalRunning.Set(0)
	c.mu.Unlock()
	close(p.done)
}

func (c *Controller) restore(center orb.Point, zoom float64) {
	c.renderer.RunOnMain(func() {
		c.renderer.SetDebugOverlay(false)
		c.renderer.SetFrame(c.opts.FreeFrame)
		c.renderer.SetInteractionEnabled(true)
		c.renderer.SetViewport(center, zoom, false)
	})
}

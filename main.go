package main

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/maptile"
)

func main() {
	// 初始化控制台
	InitFlag()
	// 开始安全退出任务
	InitSafeExit()
	// 初始化配置
	InitConf(configPath)
	// 初始化日志
	InitLog()
	// 初始化缓存
	store := InitStore()

	ctx, cancel := context.WithCancel(context.Background())
	renderer := NewFetchRenderer(FetchRendererOptions{
		Source:    conf.TileSource(),
		Store:     store,
		Workers:   conf.Renderer.Workers,
		TimeDelay: time.Duration(conf.Renderer.Timedelay) * time.Millisecond,
		Timeout:   conf.Renderer.Timeout,
		Frame:     conf.Renderer.FreeFrame,
	}, log)
	ctrl := NewController(renderer, ControllerOptions{
		Drive: DriveOptions{
			PollInterval:  conf.Traversal.PollInterval,
			RenderTimeout: conf.Traversal.RenderTimeout,
			PacingDelay:   conf.Traversal.PacingDelay,
		},
		PrefetchFrame: conf.Renderer.PrefetchFrame,
		FreeFrame:     conf.Renderer.FreeFrame,
		DebugOverlay:  conf.Renderer.DebugOverlay,
		ProgressBar:   conf.Output.ProgressBar,
	}, log)

	// 注册安全退出
	SafeExitInst.Register(func() {
		ctrl.Stop()
		ctrl.Wait()
	})
	var server *ControlServer
	if conf.Control.Addr != "" {
		defaults := PassDefaults{
			Root:           conf.Root.Tile(),
			MaxZoom:        maptile.Zoom(conf.Traversal.MaxZoom),
			WaitForRenders: conf.Traversal.WaitForRenders,
		}
		server = NewControlServer(conf.Control.Addr, NewRouter(NewControlHandler(validator.New(), ctrl, defaults), log))
		SafeExitInst.Register(server.Shutdown)
	}
	SafeExitInst.Register(func() {
		if err := store.Close(); err != nil {
			log.Errorf("close cache error, details: %s", err)
		}
	})
	SafeExitInst.Register(cancel)

	// 开始任务
	go InitTask(ctrl, server)

	// 主线程作为渲染上下文
	renderer.Run(ctx)
}

// InitTask 启动控制服务以及自动遍历
func InitTask(ctrl *Controller, server *ControlServer) {
	log.Infof("%s %s", conf.App.Title, conf.App.Version)
	if server != nil {
		server.Start()
	}
	if !conf.Traversal.AutoStart {
		if server == nil {
			log.Warnf("autoStart is off and no control addr is set, nothing to do")
			SafeExitInst.Run()
		}
		return
	}

	start := time.Now()
	err := ctrl.Start(conf.Root.Tile(), maptile.Zoom(conf.Traversal.MaxZoom), conf.Traversal.WaitForRenders)
	if err != nil {
		log.Fatalf("start traversal error, details: %s", err)
	}
	ctrl.Wait()

	if server == nil {
		log.Printf("%.3fs finished...", time.Since(start).Seconds())
		SafeExitInst.Run()
	}
}

// InitStore 按配置创建缓存
func InitStore() TileStore {
	var (
		store TileStore
		err   error
	)
	switch conf.Cache.Backend {
	case "sqlite":
		store, err = NewSQLiteStore(conf.Cache.SQLite)
	case "redis":
		store, err = NewRedisStore(conf.Cache.Redis)
	default:
		store, err = NewFileStore(conf.Cache.Directory, conf.Renderer.Format)
	}
	if err != nil {
		log.Fatalf("init %s cache error, details: %s", conf.Cache.Backend, err)
	}
	return store
}

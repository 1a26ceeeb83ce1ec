package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

func InitSafeExit() {
	SafeExitInst = new(SafeExit)
	go SafeExitInst.ListenSignal()
}

// SafeExit 收到退出信号时按注册顺序执行清理
type SafeExit struct {
	funcs []func()
	mu    sync.Mutex
	once  sync.Once
}

func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Run 执行全部清理函数, 只执行一次
func (s *SafeExit) Run() {
	s.once.Do(func() {
		s.mu.Lock()
		funcs := append([]func(){}, s.funcs...)
		s.mu.Unlock()

		for _, f := range funcs {
			f()
		}
	})
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	for sig := range sigs {
		fmt.Printf("收到系统信号 %d, 正在停止任务, 请稍后\n", sig)
		s.Run()
		os.Exit(0)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/maptile"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const internalServerErrorText = "the server encountered an error and could not process your request"

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// startRequest 启动参数, 缺省取配置
type startRequest struct {
	Root           *RootConf `json:"root"`
	MaxZoom        *int      `json:"maxZoom" validate:"omitempty,gte=0,lte=22"`
	WaitForRenders *bool     `json:"waitForRenders"`
}

// PassDefaults 配置中的遍历参数
type PassDefaults struct {
	Root           maptile.Tile
	MaxZoom        maptile.Zoom
	WaitForRenders bool
}

// ControlHandler 模式切换接口
type ControlHandler struct {
	validate *validator.Validate
	ctrl     *Controller
	defaults PassDefaults
}

func NewControlHandler(v *validator.Validate, ctrl *Controller, d PassDefaults) *ControlHandler {
	return &ControlHandler{validate: v, ctrl: ctrl, defaults: d}
}

func (h *ControlHandler) respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, response{Success: code < 400, Message: message, Data: data})
}

func (h *ControlHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, "OK")
}

func (h *ControlHandler) Status(c *gin.Context) {
	h.respond(c, http.StatusOK, "traversal status", h.ctrl.Status())
}

func (h *ControlHandler) Start(c *gin.Context) {
	root, maxZoom, wait, err := h.passParams(c)
	if err != nil {
		h.respond(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	h.startPass(c, root, maxZoom, wait)
}

func (h *ControlHandler) Stop(c *gin.Context) {
	h.ctrl.Stop()
	h.respond(c, http.StatusAccepted, "traversal stopping", h.ctrl.Status())
}

// Toggle 运行中则停止, 否则按配置启动
func (h *ControlHandler) Toggle(c *gin.Context) {
	if h.ctrl.State() == Running {
		h.Stop(c)
		return
	}
	h.startPass(c, h.defaults.Root, h.defaults.MaxZoom, h.defaults.WaitForRenders)
}

func (h *ControlHandler) startPass(c *gin.Context, root maptile.Tile, maxZoom maptile.Zoom, wait bool) {
	err := h.ctrl.Start(root, maxZoom, wait)
	switch {
	case err == nil:
		h.respond(c, http.StatusAccepted, "traversal started", h.ctrl.Status())
	case errors.Is(err, ErrAlreadyRunning):
		h.respond(c, http.StatusConflict, err.Error(), h.ctrl.Status())
	case errors.Is(err, ErrInvalidTile), errors.Is(err, ErrInvalidRange):
		h.respond(c, http.StatusBadRequest, err.Error(), nil)
	default:
		log.Errorf("start traversal error, details: %s", err)
		h.respond(c, http.StatusInternalServerError, internalServerErrorText, nil)
	}
}

func (h *ControlHandler) passParams(c *gin.Context) (maptile.Tile, maptile.Zoom, bool, error) {
	root, maxZoom, wait := h.defaults.Root, h.defaults.MaxZoom, h.defaults.WaitForRenders

	var req startRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			return root, maxZoom, wait, err
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return root, maxZoom, wait, err
	}
	if req.Root != nil {
		if err := req.Root.Validate(); err != nil {
			return root, maxZoom, wait, err
		}
		root = req.Root.Tile()
	}
	if req.MaxZoom != nil {
		maxZoom = maptile.Zoom(*req.MaxZoom)
	}
	if req.WaitForRenders != nil {
		wait = *req.WaitForRenders
	}
	return root, maxZoom, wait, nil
}

// NewRouter 控制接口路由
func NewRouter(h *ControlHandler, l *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginLogrusLogger(l))

	v1 := r.Group("/api/v1")
	v1.GET("/healthz", h.Healthz)
	v1.GET("/traversal", h.Status)
	v1.POST("/traversal/start", h.Start)
	v1.POST("/traversal/stop", h.Stop)
	v1.POST("/traversal/toggle", h.Toggle)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func ginLogrusLogger(l *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"ip":      c.ClientIP(),
			"latency": time.Since(start),
		}).Debug("request")
	}
}

// ControlServer 控制服务
type ControlServer struct {
	srv *http.Server
}

func NewControlServer(addr string, handler http.Handler) *ControlServer {
	return &ControlServer{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}}
}

// Start 后台监听
func (s *ControlServer) Start() {
	go func() {
		log.Infof("control server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("control server failed, details: %s", err)
		}
	}()
}

func (s *ControlServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Errorf("control server shutdown failed, details: %s", err)
	}
}

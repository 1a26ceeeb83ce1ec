package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TilesDriven = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilecacher_tiles_driven_total",
		Help: "Total number of tiles the renderer was moved to",
	})

	RenderTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tilecacher_render_timeouts_total",
		Help: "Total number of tiles whose render did not complete before the wait cap",
	})

	RenderWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tilecacher_render_wait_seconds",
		Help:    "Time spent waiting for a render to complete",
		Buckets: []float64{.01, .025, .05, .1, .2, .3, .4, .5, .75, 1},
	})

	TraversalRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tilecacher_traversal_running",
		Help: "1 while a traversal pass is running",
	})

	// 渲染器瓦片拉取结果: fetched, cached, failed
	RendererTiles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tilecacher_renderer_tiles_total",
		Help: "Tiles handled by the fetch renderer by result",
	}, []string{"result"})
)

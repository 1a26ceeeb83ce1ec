package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// TileSource 瓦片数据源, URL 支持 {z} {x} {y} 以及 TMS 行号 {-y}
type TileSource struct {
	Name   string
	Format string
	URL    string
}

// Validate 检查 URL 模板
func (s *TileSource) Validate() error {
	for _, p := range []string{"{z}", "{x}"} {
		if !strings.Contains(s.URL, p) {
			return fmt.Errorf("tile url %q has no %s placeholder", s.URL, p)
		}
	}
	if !strings.Contains(s.URL, "{y}") && !strings.Contains(s.URL, "{-y}") {
		return fmt.Errorf("tile url %q has no {y} or {-y} placeholder", s.URL)
	}
	return nil
}

// GetTileURL 获取瓦片URL
func (s *TileSource) GetTileURL(t maptile.Tile) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{-y}", strconv.FormatUint(uint64(flipY(t)), 10),
		"{y}", strconv.FormatUint(uint64(t.Y), 10),
	)
	return r.Replace(s.URL)
}

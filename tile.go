package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// TileSize 渲染器瓦片像素大小
const TileSize = 512

// ZoomMin 最小级别
const ZoomMin = 0

// ZoomMax 最大级别
const ZoomMax = 22

var (
	// ErrInvalidTile 瓦片行列号超出该级别范围
	ErrInvalidTile = errors.New("invalid tile")
	// ErrInvalidRange 级别范围无效
	ErrInvalidRange = errors.New("invalid zoom range")
)

// Tile 自定义瓦片存储
type Tile struct {
	T maptile.Tile
	C []byte
}

// 瓦片格式, pbf 写入缓存前 gzip 压缩
const (
	PNG = "png"
	PBF = "pbf"
)

// flipY TMS 行号
func flipY(t maptile.Tile) uint32 {
	return (1 << uint32(t.Z)) - t.Y - 1
}

// ValidateTile 校验 0 <= x,y < 2^z
func ValidateTile(t maptile.Tile) error {
	if t.Z > ZoomMax {
		return fmt.Errorf("%w: zoom %d exceeds %d", ErrInvalidTile, t.Z, ZoomMax)
	}
	n := uint32(1) << uint32(t.Z)
	if t.X >= n || t.Y >= n {
		return fmt.Errorf("%w: (%d, %d) out of range at zoom %d", ErrInvalidTile, t.X, t.Y, t.Z)
	}
	return nil
}

// ValidateRange 校验根瓦片与最大级别
func ValidateRange(root maptile.Tile, maxZoom maptile.Zoom) error {
	if err := ValidateTile(root); err != nil {
		return err
	}
	if maxZoom < root.Z {
		return fmt.Errorf("%w: maxZoom %d below root zoom %d", ErrInvalidRange, maxZoom, root.Z)
	}
	if maxZoom > ZoomMax {
		return fmt.Errorf("%w: maxZoom %d exceeds %d", ErrInvalidRange, maxZoom, ZoomMax)
	}
	return nil
}

// ParseTile 解析 "z/x/y"
func ParseTile(s string) (maptile.Tile, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return maptile.Tile{}, fmt.Errorf("%w: %q is not z/x/y", ErrInvalidTile, s)
	}
	var v [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return maptile.Tile{}, fmt.Errorf("%w: %q: %v", ErrInvalidTile, s, err)
		}
		v[i] = uint32(n)
	}
	t := maptile.Tile{Z: maptile.Zoom(v[0]), X: v[1], Y: v[2]}
	return t, ValidateTile(t)
}

func tileString(t maptile.Tile) string {
	return fmt.Sprintf("tile(z:%d, x:%d, y:%d)", t.Z, t.X, t.Y)
}

package main

import (
	"iter"

	"github.com/paulmach/orb/maptile"
)

// Enumerate 返回 root 在 [root.Z, maxZoom] 内全部子瓦片的序列.
// 级别递增, 同级内 x 外层 y 内层. 每次遍历都从头生成, 不共享状态.
func Enumerate(root maptile.Tile, maxZoom maptile.Zoom) iter.Seq[maptile.Tile] {
	return func(yield func(maptile.Tile) bool) {
		for z := root.Z; z <= maxZoom; z++ {
			factor := uint32(1) << uint32(z-root.Z)
			minX, minY := root.X*factor, root.Y*factor
			for x := minX; x < minX+factor; x++ {
				for y := minY; y < minY+factor; y++ {
					if !yield(maptile.Tile{X: x, Y: y, Z: z}) {
						return
					}
				}
			}
		}
	}
}

// CountTiles 瓦片总数, 即 Σ 4^i, i ∈ [0, maxZoom-root.Z]
func CountTiles(root maptile.Tile, maxZoom maptile.Zoom) int64 {
	if maxZoom < root.Z {
		return 0
	}
	var total int64
	for i := uint32(0); i <= uint32(maxZoom-root.Z); i++ {
		total += int64(1) << (2 * i)
	}
	return total
}

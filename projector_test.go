package main

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
)

func TestBoundsForTileWorld(t *testing.T) {
	b := BoundsForTile(maptile.Tile{X: 0, Y: 0, Z: 0})

	assert.InDelta(t, -180, b.Min[0], 1e-9)
	assert.InDelta(t, 180, b.Max[0], 1e-9)
	assert.InDelta(t, -MaxLatitude, b.Min[1], 1e-9)
	assert.InDelta(t, MaxLatitude, b.Max[1], 1e-9)
}

func TestBoundsForTileQuadrant(t *testing.T) {
	// z1 左上角瓦片为西北象限
	b := BoundsForTile(maptile.Tile{X: 0, Y: 0, Z: 1})

	assert.InDelta(t, -180, b.Min[0], 1e-9)
	assert.InDelta(t, 0, b.Max[0], 1e-9)
	assert.InDelta(t, 0, b.Min[1], 1e-9)
	assert.InDelta(t, MaxLatitude, b.Max[1], 1e-9)
}

func TestBoundsForTileLatitudeClamped(t *testing.T) {
	for z := maptile.Zoom(0); z <= 6; z++ {
		n := uint32(1) << uint32(z)
		for _, y := range []uint32{0, n - 1} {
			b := BoundsForTile(maptile.Tile{X: 0, Y: y, Z: z})
			for _, lat := range []float64{b.Min[1], b.Max[1]} {
				assert.False(t, math.IsNaN(lat), "z=%d y=%d", z, y)
				assert.LessOrEqual(t, math.Abs(lat), MaxLatitude, "z=%d y=%d", z, y)
			}
			assert.Less(t, b.Min[1], b.Max[1])
		}
	}
	assert.Equal(t, MaxLatitude, clampLatitude(89.9))
	assert.Equal(t, -MaxLatitude, clampLatitude(-90))
}

func TestCenterLiesInChild(t *testing.T) {
	root := maptile.Tile{X: 326, Y: 732, Z: 11}
	rb := BoundsForTile(root)
	center := CenterOf(rb)
	assert.True(t, rb.Contains(center))

	var containing int
	for c := range Enumerate(root, root.Z+1) {
		if c == root {
			continue
		}
		cb := BoundsForTile(c)
		assert.True(t, rb.Contains(CenterOf(cb)), "child %v center outside root", c)
		if cb.Contains(center) {
			containing++
		}
	}
	assert.GreaterOrEqual(t, containing, 1)
}

func TestCenterOf(t *testing.T) {
	b := orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{30, 60}}
	assert.Equal(t, orb.Point{20, 40}, CenterOf(b))
}

func TestPixelForPointInsideTile(t *testing.T) {
	for _, tile := range []maptile.Tile{
		{X: 326, Y: 732, Z: 11},
		{X: 0, Y: 0, Z: 0},
		{X: 5, Y: 2, Z: 3},
	} {
		px, py := PixelForPoint(CenterOf(BoundsForTile(tile)), tile.Z)
		assert.Equal(t, tile.X, uint32(px/TileSize), "%v", tile)
		assert.Equal(t, tile.Y, uint32(py/TileSize), "%v", tile)
	}
}

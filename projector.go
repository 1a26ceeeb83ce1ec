package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	// EarthRadius 地球半径（米）
	EarthRadius = 6378137.0
	// MaxLatitude 墨卡托投影纬度极限
	MaxLatitude = 85.05112878
)

// worldWidth 投影坐标系下的世界宽度（米）
const worldWidth = 2 * math.Pi * EarthRadius

func metersPerPixel(z maptile.Zoom) float64 {
	return worldWidth / (TileSize * math.Exp2(float64(z)))
}

func clampLatitude(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// metersToPoint 反向球面墨卡托
func metersToPoint(mx, my float64) orb.Point {
	lat := (2*math.Atan(math.Exp(my/EarthRadius)) - math.Pi/2) * 180 / math.Pi
	lon := mx * 180 / math.Pi / EarthRadius
	return orb.Point{lon, clampLatitude(lat)}
}

// BoundsForTile 瓦片地理范围, Min 为西南角, Max 为东北角
func BoundsForTile(t maptile.Tile) orb.Bound {
	mpp := metersPerPixel(t.Z)
	n := math.Exp2(float64(t.Z))

	// 像素原点在左下角, 行号从上往下数
	px := float64(t.X) * TileSize
	py := (n - float64(t.Y) - 1) * TileSize

	mx := px*mpp - worldWidth/2
	my := py*mpp - worldWidth/2
	side := TileSize * mpp

	return orb.Bound{
		Min: metersToPoint(mx, my),
		Max: metersToPoint(mx+side, my+side),
	}
}

// CenterOf 范围中心, 按坐标轴取算术平均
func CenterOf(b orb.Bound) orb.Point {
	return orb.Point{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
	}
}

// PixelForPoint 正向投影, 返回 z 级世界像素坐标（y 自上而下）
func PixelForPoint(p orb.Point, z maptile.Zoom) (float64, float64) {
	mpp := metersPerPixel(z)
	lat := clampLatitude(p[1])

	mx := p[0] * math.Pi / 180 * EarthRadius
	my := EarthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))

	px := (mx + worldWidth/2) / mpp
	py := (my + worldWidth/2) / mpp
	return px, TileSize*math.Exp2(float64(z)) - py
}

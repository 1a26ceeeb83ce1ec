package main

import (
	"slices"
	"testing"
	"time"

	"github.com/paulmach/orb/maptile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(r *fakeRenderer) *Controller {
	return NewController(r, ControllerOptions{
		Drive:         fastDrive,
		PrefetchFrame: Frame{Width: 512, Height: 512},
		FreeFrame:     Frame{Width: 1024, Height: 768},
	}, quietLogger())
}

func TestControllerFullPass(t *testing.T) {
	r := newFakeRenderer(true, 0)
	c := newTestController(r)
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.Start(exampleRoot, 12, true))
	c.Wait()
	assert.Equal(t, Idle, c.State())

	tiles := slices.Collect(Enumerate(exampleRoot, 12))
	vps := r.Viewports()
	require.Len(t, vps, len(tiles)+1)
	for i, tile := range tiles {
		assert.Equal(t, CenterOf(BoundsForTile(tile)), vps[i].Center, "viewport %d", i)
		assert.Equal(t, float64(tile.Z), vps[i].Zoom, "viewport %d", i)
	}
	// 恢复到最后下发的位置
	assert.Equal(t, vps[len(tiles)-1], vps[len(tiles)])

	r.mu.Lock()
	assert.Equal(t, []Frame{{512, 512}, {1024, 768}}, r.frames)
	assert.Equal(t, []bool{false, true}, r.interactive)
	r.mu.Unlock()

	s := c.Status()
	assert.Equal(t, "idle", s.State)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, int64(5), s.Total)
	assert.Equal(t, int64(5), s.Processed)
	assert.Equal(t, int64(0), s.TimedOut)
	assert.False(t, s.Cancelled)
}

func TestControllerTimeoutsCounted(t *testing.T) {
	r := newFakeRenderer(false, 0)
	c := newTestController(r)

	require.NoError(t, c.Start(exampleRoot, 12, true))
	c.Wait()

	s := c.Status()
	assert.Equal(t, int64(5), s.Processed)
	assert.Equal(t, int64(5), s.TimedOut)
}

func TestControllerRejectsSecondStart(t *testing.T) {
	r := newFakeRenderer(false, 0)
	c := newTestController(r)

	require.NoError(t, c.Start(exampleRoot, 15, true))
	assert.ErrorIs(t, c.Start(exampleRoot, 12, true), ErrAlreadyRunning)
	assert.Equal(t, Running, c.State())

	c.Stop()
	c.Wait()
}

func TestControllerStop(t *testing.T) {
	r := newFakeRenderer(false, 0)
	c := newTestController(r)

	require.NoError(t, c.Start(exampleRoot, 15, true))
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	c.Stop()
	c.Wait()
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, Idle, c.State())

	s := c.Status()
	assert.True(t, s.Cancelled)
	assert.Less(t, s.Processed, s.Total)

	r.mu.Lock()
	assert.Equal(t, []bool{false, true}, r.interactive)
	r.mu.Unlock()

	// 可再次启动
	require.NoError(t, c.Start(exampleRoot, 11, false))
	c.Wait()
	assert.Equal(t, int64(1), c.Status().Processed)
}

func TestControllerToggle(t *testing.T) {
	r := newFakeRenderer(false, 0)
	c := newTestController(r)

	state, err := c.Toggle(exampleRoot, 15, true)
	require.NoError(t, err)
	assert.Equal(t, Running, state)

	state, err = c.Toggle(exampleRoot, 15, true)
	require.NoError(t, err)
	assert.Equal(t, Idle, state)
	c.Wait()
	assert.Equal(t, Idle, c.State())
}

func TestControllerInvalidRange(t *testing.T) {
	c := newTestController(newFakeRenderer(true, 0))

	assert.ErrorIs(t, c.Start(exampleRoot, 10, true), ErrInvalidRange)
	assert.ErrorIs(t, c.Start(maptile.Tile{X: 4, Y: 0, Z: 2}, 3, true), ErrInvalidTile)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, "idle", c.Status().State)
}

func TestControllerStopAfterLastTileKeepsPassComplete(t *testing.T) {
	r := newFakeRenderer(true, 0)
	c := newTestController(r)
	// 最后一块已完成、恢复视口之前到达的 Stop
	r.onFrame = func(f Frame) {
		if f == (Frame{Width: 1024, Height: 768}) {
			c.Stop()
		}
	}

	require.NoError(t, c.Start(exampleRoot, 12, true))
	c.Wait()

	s := c.Status()
	assert.Equal(t, int64(5), s.Processed)
	assert.False(t, s.Cancelled)
}

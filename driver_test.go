package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(r Renderer, opts DriveOptions) *RenderDriver {
	signal := newRenderSignal()
	r.OnRenderComplete(signal.Done)
	return NewRenderDriver(r, signal, opts, quietLogger().WithField("pass", "test"))
}

func TestDriveTimeoutBound(t *testing.T) {
	r := newFakeRenderer(false, 0)
	d := newTestDriver(r, DriveOptions{WaitForRenders: true})

	start := time.Now()
	p := d.Drive(context.Background(), exampleRoot)
	elapsed := time.Since(start)

	assert.True(t, p.TimedOut)
	assert.GreaterOrEqual(t, elapsed, DefaultRenderTimeout)
	assert.Less(t, elapsed, DefaultRenderTimeout+DefaultPollInterval+100*time.Millisecond)
}

func TestDriveWaitsForRender(t *testing.T) {
	r := newFakeRenderer(true, 10*time.Millisecond)
	d := newTestDriver(r, DriveOptions{WaitForRenders: true})

	start := time.Now()
	p := d.Drive(context.Background(), exampleRoot)

	assert.False(t, p.TimedOut)
	assert.Less(t, time.Since(start), DefaultRenderTimeout)

	vps := r.Viewports()
	require.Len(t, vps, 1)
	assert.Equal(t, CenterOf(BoundsForTile(exampleRoot)), vps[0].Center)
	assert.Equal(t, 11.0, vps[0].Zoom)
}

func TestDrivePacingWithoutWait(t *testing.T) {
	r := newFakeRenderer(false, 0)
	d := newTestDriver(r, DriveOptions{PacingDelay: 30 * time.Millisecond})

	start := time.Now()
	p := d.Drive(context.Background(), exampleRoot)

	assert.False(t, p.TimedOut)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestDriveSequence(t *testing.T) {
	r := newFakeRenderer(true, 0)
	d := newTestDriver(r, fastDrive)

	_, _, ok := d.LastViewport()
	assert.False(t, ok)

	var seqs []int64
	for tile := range Enumerate(exampleRoot, 12) {
		seqs = append(seqs, d.Drive(context.Background(), tile).Seq)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seqs)

	center, zoom, ok := d.LastViewport()
	assert.True(t, ok)
	assert.Equal(t, 12.0, zoom)
	assert.Equal(t, r.Viewports()[4].Center, center)
}

func TestDriveCancelledWait(t *testing.T) {
	r := newFakeRenderer(false, 0)
	d := newTestDriver(r, DriveOptions{WaitForRenders: true, RenderTimeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	p := d.Drive(ctx, exampleRoot)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, p.Cancelled)
	assert.False(t, p.TimedOut)
}

func TestRenderSignal(t *testing.T) {
	s := newRenderSignal()
	assert.False(t, s.Rendered())

	s.Done()
	s.Done()
	assert.True(t, s.Rendered())
	assert.True(t, s.Wait(context.Background(), time.Millisecond, time.Millisecond))

	s.Reset()
	assert.False(t, s.Rendered())
	assert.False(t, s.Wait(context.Background(), time.Millisecond, 5*time.Millisecond))
}

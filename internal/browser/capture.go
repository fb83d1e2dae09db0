package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/pagecast/backend/internal/types"
)

// Capture is a running screencast. Stop detaches the frame handler before
// telling the browser to stop, so no callback fires against a disposed page.
type Capture struct {
	cancel context.CancelFunc
	stop   func() error
}

// StartCapture begins a CDP screencast. The browser pushes a frame whenever
// the rendered page changes; each one is acknowledged and handed to onFrame.
// onFrame is invoked from a single goroutine, never concurrently.
func (d *Driver) StartCapture(ctx context.Context, quality int, onFrame func(types.Frame)) (*Capture, error) {
	captureCtx, cancel := context.WithCancel(ctx)
	page := d.page.Context(captureCtx)

	wait := page.EachEvent(func(ev *proto.PageScreencastFrame) {
		// Unacknowledged frames stall the screencast.
		if err := (proto.PageScreencastFrameAck{SessionID: ev.SessionID}).Call(page); err != nil {
			return
		}

		frame := types.Frame{
			Data:      ev.Data,
			Timestamp: time.Now(),
			Width:     d.viewport.Width,
			Height:    d.viewport.Height,
		}
		if ev.Metadata != nil {
			frame.Timestamp = ev.Metadata.Timestamp.Time()
			frame.Width = int(ev.Metadata.DeviceWidth)
			frame.Height = int(ev.Metadata.DeviceHeight)
		}
		onFrame(frame)
	})

	start := proto.PageStartScreencast{
		Format:        proto.PageStartScreencastFormatJpeg,
		Quality:       gson.Int(quality),
		MaxWidth:      gson.Int(d.viewport.Width),
		MaxHeight:     gson.Int(d.viewport.Height),
		EveryNthFrame: gson.Int(1),
	}
	if err := start.Call(page); err != nil {
		cancel()
		return nil, fmt.Errorf("start screencast: %w", err)
	}

	go wait()

	return &Capture{
		cancel: cancel,
		stop: func() error {
			return proto.PageStopScreencast{}.Call(d.page)
		},
	}, nil
}

// Stop detaches the frame handler and stops the screencast.
func (c *Capture) Stop() error {
	c.cancel()
	return c.stop()
}

// CaptureOnce takes a single screenshot of the current page.
func (d *Driver) CaptureOnce(ctx context.Context, quality int) (types.Frame, error) {
	data, err := d.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(quality),
	})
	if err != nil {
		return types.Frame{}, fmt.Errorf("capture screenshot: %w", err)
	}

	return types.Frame{
		Data:      data,
		Timestamp: time.Now(),
		Width:     d.viewport.Width,
		Height:    d.viewport.Height,
	}, nil
}

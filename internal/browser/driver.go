// Package browser wraps the rod browser driver: one isolated Chromium
// instance per Driver, with the mouse, keyboard, navigation, and frame
// capture primitives the relay needs.
package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/pagecast/backend/internal/config"
	"github.com/pagecast/backend/internal/logging"
	"github.com/pagecast/backend/internal/types"
)

// Driver owns one launched browser process, its incognito context, and the
// single page the session controls.
type Driver struct {
	cfg      config.BrowserConfig
	log      *logging.Logger
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	viewport types.Viewport
}

// Launch starts a fresh isolated browser, applies the fixed viewport, and
// navigates to the configured landing page. Any failure tears down whatever
// was already created and returns the error.
func Launch(ctx context.Context, cfg config.BrowserConfig, log *logging.Logger) (*Driver, error) {
	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	d := &Driver{
		cfg:      cfg,
		log:      log,
		launcher: l,
		browser:  b,
		viewport: types.Viewport{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
	}

	incognito, err := b.Incognito()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	d.page = page

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             d.viewport.Width,
		Height:            d.viewport.Height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		d.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if err := page.Timeout(cfg.NavigationTimeout()).Navigate(cfg.StartURL); err != nil {
		d.Close()
		return nil, fmt.Errorf("initial navigation to %s: %w", cfg.StartURL, err)
	}

	return d, nil
}

// Viewport returns the fixed pixel dimensions of the rendering surface.
func (d *Driver) Viewport() types.Viewport {
	return d.viewport
}

// Navigate loads the given URL.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.page.Context(ctx).Timeout(d.cfg.NavigationTimeout()).Navigate(url)
}

// Back navigates one entry back in history.
func (d *Driver) Back(ctx context.Context) error {
	return d.page.Context(ctx).NavigateBack()
}

// Forward navigates one entry forward in history.
func (d *Driver) Forward(ctx context.Context) error {
	return d.page.Context(ctx).NavigateForward()
}

// Reload reloads the current page.
func (d *Driver) Reload(ctx context.Context) error {
	return d.page.Context(ctx).Reload()
}

// MouseMove moves the pointer to the given pixel position.
func (d *Driver) MouseMove(ctx context.Context, x, y int) error {
	return d.page.Context(ctx).Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)})
}

// MouseDown presses the left button at the pointer's current position.
func (d *Driver) MouseDown(ctx context.Context) error {
	return d.page.Context(ctx).Mouse.Down(proto.InputMouseButtonLeft, 1)
}

// MouseUp releases the left button at the pointer's current position.
func (d *Driver) MouseUp(ctx context.Context) error {
	return d.page.Context(ctx).Mouse.Up(proto.InputMouseButtonLeft, 1)
}

// Click moves the pointer to the given pixel position and left-clicks.
func (d *Driver) Click(ctx context.Context, x, y int) error {
	p := d.page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: float64(x), Y: float64(y)}); err != nil {
		return err
	}
	return p.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// PressKey dispatches a named key through the driver's key map.
func (d *Driver) PressKey(ctx context.Context, key input.Key) error {
	return d.page.Context(ctx).Keyboard.Press(key)
}

// RawKey dispatches an unmapped key identifier as a raw key down/up pair.
func (d *Driver) RawKey(ctx context.Context, key string, modifiers int) error {
	p := d.page.Context(ctx)
	down := proto.InputDispatchKeyEvent{
		Type:      proto.InputDispatchKeyEventTypeRawKeyDown,
		Key:       key,
		Modifiers: modifiers,
	}
	if err := down.Call(p); err != nil {
		return err
	}
	up := proto.InputDispatchKeyEvent{
		Type:      proto.InputDispatchKeyEventTypeKeyUp,
		Key:       key,
		Modifiers: modifiers,
	}
	return up.Call(p)
}

// TypeText inserts literal text at the focused element.
func (d *Driver) TypeText(ctx context.Context, text string) error {
	return d.page.Context(ctx).InsertText(text)
}

// Close releases the page, browser, and launched process. Each step tolerates
// failure so one stuck resource never blocks release of the others.
func (d *Driver) Close() {
	if d.page != nil {
		if err := d.page.Close(); err != nil {
			d.log.Warn("teardown: close page", zap.Error(err))
		}
		d.page = nil
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			d.log.Warn("teardown: close browser", zap.Error(err))
		}
		d.browser = nil
	}
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
		d.launcher = nil
	}
}

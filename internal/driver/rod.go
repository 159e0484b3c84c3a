package driver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/storescout/storescout/internal/types"
)

// RodDriver is the production PageDriver backed by a Rod-controlled
// Chromium instance. One page is reused across all navigations.
type RodDriver struct {
	browser *rod.Browser
	page    *rod.Page
	logger  *slog.Logger
}

// RodOptions configures browser launch.
type RodOptions struct {
	Headless   bool
	Stealth    bool
	ProxyURL   string
	WindowSize string
}

// NewRodDriver launches Chromium and opens the single shared page.
func NewRodDriver(opts RodOptions, logger *slog.Logger) (*RodDriver, error) {
	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if opts.ProxyURL != "" {
		l = l.Proxy(opts.ProxyURL)
	}
	if opts.WindowSize != "" {
		l = l.Set("window-size", opts.WindowSize)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var page *rod.Page
	if opts.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	logger = logger.With("component", "rod_driver")
	logger.Info("browser ready", "headless", opts.Headless, "stealth", opts.Stealth)

	return &RodDriver{browser: browser, page: page, logger: logger}, nil
}

// Navigate implements PageDriver.
func (d *RodDriver) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	page := d.page.Context(ctx).Timeout(timeout)
	if err := page.Navigate(url); err != nil {
		return &types.NavError{URL: url, Err: err}
	}
	// Stability timeout is tolerable; heavy pages keep streaming assets.
	if err := page.WaitStable(300 * time.Millisecond); err != nil {
		d.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

// Wait implements PageDriver.
func (d *RodDriver) Wait(dur time.Duration) {
	time.Sleep(dur)
}

// Scroll implements PageDriver.
func (d *RodDriver) Scroll(delta int) error {
	_, err := d.page.Eval(fmt.Sprintf(`window.scrollBy(0, %d)`, delta))
	return err
}

// Find implements PageDriver.
func (d *RodDriver) Find(selector string) ([]Element, error) {
	els, err := d.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

// FindByText implements PageDriver using Rod's regex element match.
func (d *RodDriver) FindByText(selector, text string) ([]Element, error) {
	el, err := d.page.Timeout(2*time.Second).ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return nil, nil // no match is not an error
	}
	return []Element{&rodElement{el: el}}, nil
}

// Content implements PageDriver.
func (d *RodDriver) Content() (string, error) {
	return d.page.HTML()
}

// Screenshot implements PageDriver.
func (d *RodDriver) Screenshot() ([]byte, error) {
	return d.page.Screenshot(true, nil)
}

// Close shuts the browser down.
func (d *RodDriver) Close() error {
	if d.page != nil {
		_ = d.page.Close()
	}
	if d.browser != nil {
		return d.browser.Close()
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", err
	}
	return *v, nil
}

func (e *rodElement) Click(timeout time.Duration) error {
	return e.el.Timeout(timeout).Click(proto.InputMouseButtonLeft, 1)
}

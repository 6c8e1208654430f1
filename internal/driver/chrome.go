package driver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/rahul/synthetics/internal/governance"
)

// ChromeOptions configures the browser process behind a Chrome driver.
type ChromeOptions struct {
	Headless  bool
	UserAgent string
	ExecPath  string
	// RemoteURL attaches to an already running browser's devtools endpoint
	// instead of launching one.
	RemoteURL    string
	Flags        map[string]any
	Capabilities Capabilities
	Policy       governance.PolicyEngine
}

// Chrome drives a Chrome instance over the devtools protocol.
type Chrome struct {
	opts ChromeOptions

	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewChrome(opts ChromeOptions) *Chrome {
	return &Chrome{opts: opts}
}

// Start launches (or attaches to) the browser. It is a no-op while a session
// is alive.
func (c *Chrome) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browserCtx != nil {
		select {
		case <-c.browserCtx.Done():
			c.cleanup()
		default:
			return nil
		}
	}

	if c.opts.RemoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), c.opts.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", c.opts.Headless),
			chromedp.Flag("no-first-run", true),
			chromedp.Flag("no-default-browser-check", true),
		)
		if c.opts.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(c.opts.UserAgent))
		}
		if c.opts.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
		}
		for name, value := range c.opts.Flags {
			opts = append(opts, chromedp.Flag(name, value))
		}
		c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	// The session outlives ctx; only the launch is bound to it.
	stop := context.AfterFunc(ctx, c.browserCancel)
	err := chromedp.Run(c.browserCtx)
	stop()
	if ctx.Err() != nil {
		c.cleanup()
		return ctx.Err()
	}
	if err != nil {
		c.cleanup()
		return fmt.Errorf("failed to start browser: %w", err)
	}
	return nil
}

// Close ends the browser session.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup()
	return nil
}

func (c *Chrome) cleanup() {
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	c.browserCtx = nil
	c.allocCtx = nil
}

// run executes actions on the browser tab, bounded by ctx's deadline and
// cancellation.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	c.mu.Lock()
	browserCtx := c.browserCtx
	c.mu.Unlock()
	if browserCtx == nil {
		return errors.New("browser session not started")
	}

	runCtx, cancel := context.WithCancel(browserCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Capabilities(ctx context.Context) (Capabilities, error) {
	caps := Capabilities{}
	maps.Copy(caps, c.opts.Capabilities)

	var product, userAgent string
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		_, product, _, userAgent, _, err = browser.GetVersion().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read browser version: %w", err)
	}
	caps["browserVersion"] = product
	caps["userAgent"] = userAgent
	return caps, nil
}

func (c *Chrome) Get(ctx context.Context, url string) error {
	if err := governance.Check(ctx, c.opts.Policy, governance.Request{URL: url}); err != nil {
		return err
	}
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := c.run(ctx, chromedp.Location(&url))
	return url, err
}

func (c *Chrome) SetWindowRect(ctx context.Context, r Rect) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		// Bounds cannot be changed while the window is maximized.
		if err := browser.SetWindowBounds(windowID, &browser.Bounds{WindowState: browser.WindowStateNormal}).Do(ctx); err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{
			Left:   int64(r.X),
			Top:    int64(r.Y),
			Width:  int64(r.Width),
			Height: int64(r.Height),
		}).Do(ctx)
	}))
}

func (c *Chrome) FindElement(ctx context.Context, loc Locator) (Element, error) {
	els, err := c.FindElements(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchElement, loc)
	}
	return els[0], nil
}

func (c *Chrome) FindElements(ctx context.Context, loc Locator) ([]Element, error) {
	by := chromedp.ByQueryAll
	if loc.By == ByXPath {
		by = chromedp.BySearch
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(loc.Value, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}

	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromeElement{chrome: c, node: n})
	}
	return els, nil
}

func (c *Chrome) ReadyState(ctx context.Context) (string, error) {
	var state string
	err := c.run(ctx, chromedp.Evaluate(`document.readyState`, &state))
	return state, err
}

func (c *Chrome) Sleep(ctx context.Context, d time.Duration) error {
	return c.run(ctx, chromedp.Sleep(d))
}

type chromeElement struct {
	chrome *Chrome
	node   *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.chrome.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *chromeElement) SendKeys(ctx context.Context, text string) error {
	return e.chrome.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.chrome.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

// visibleJS mirrors the WebDriver displayedness rules that matter for
// journeys: hidden, collapsed, display:none or fully transparent elements and
// ancestors are not displayed.
const visibleJS = `function() {
	for (let el = this; el && el.nodeType === Node.ELEMENT_NODE; el = el.parentElement) {
		const style = window.getComputedStyle(el);
		if (style.display === 'none' || parseFloat(style.opacity) === 0) {
			return false;
		}
		if (el === this && (style.visibility === 'hidden' || style.visibility === 'collapse')) {
			return false;
		}
	}
	return true;
}`

// isNoBoxModel reports whether err is devtools saying a node is not rendered.
func isNoBoxModel(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Could not compute box model")
}

// IsDisplayed reports whether the node is rendered and not hidden by style.
// Detached or display:none nodes have no box model; any other devtools error,
// such as a stale node, is returned.
func (e *chromeElement) IsDisplayed(ctx context.Context) (bool, error) {
	visible := false
	err := e.chrome.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx); err != nil {
			if isNoBoxModel(err) {
				return nil
			}
			return err
		}

		obj, err := dom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		res, exc, err := runtime.CallFunctionOn(visibleJS).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		visible = string(res.Value) == "true"
		return nil
	}))
	return visible, err
}

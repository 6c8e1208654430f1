// Package drivertest provides an in-memory driver.Driver for tests.
package drivertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rahul/synthetics/internal/driver"
)

// Element is a scripted element. Visible may flip over time via VisibleAfter.
type Element struct {
	Name         string
	Content      string
	Visible      bool
	VisibleAfter time.Time

	mu     sync.Mutex
	clicks int
	typed  string
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clicks++
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.typed += text
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.Content, nil
}

func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	if e.Visible {
		return true, nil
	}
	return !e.VisibleAfter.IsZero() && !time.Now().Before(e.VisibleAfter), nil
}

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Typed() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typed
}

// Driver serves elements registered per locator. An element registered with
// AppearAt is absent until that time.
type Driver struct {
	mu         sync.Mutex
	elements   map[driver.Locator][]*Element
	appearAt   map[driver.Locator]time.Time
	url        string
	rect       driver.Rect
	readyAfter time.Time
	visited    []string
	caps       driver.Capabilities
	capsErr    error
}

func New() *Driver {
	return &Driver{
		elements: make(map[driver.Locator][]*Element),
		appearAt: make(map[driver.Locator]time.Time),
		caps:     driver.Capabilities{"browserName": "fake"},
	}
}

// Add registers elements under loc.
func (d *Driver) Add(loc driver.Locator, els ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[loc] = append(d.elements[loc], els...)
}

// AppearAt hides everything under loc until t.
func (d *Driver) AppearAt(loc driver.Locator, t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appearAt[loc] = t
}

// ReadyAfter makes ReadyState report "interactive" until t.
func (d *Driver) ReadyAfter(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readyAfter = t
}

// FailCapabilities makes Capabilities return err.
func (d *Driver) FailCapabilities(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.capsErr = err
}

func (d *Driver) Visited() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.visited...)
}

func (d *Driver) Rect() driver.Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rect
}

func (d *Driver) Capabilities(ctx context.Context) (driver.Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.capsErr != nil {
		return nil, d.capsErr
	}
	return d.caps, nil
}

func (d *Driver) Get(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.visited = append(d.visited, url)
	return nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *Driver) SetWindowRect(ctx context.Context, r driver.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rect = r
	return nil
}

func (d *Driver) FindElement(ctx context.Context, loc driver.Locator) (driver.Element, error) {
	els, err := d.FindElements(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", driver.ErrNoSuchElement, loc)
	}
	return els[0], nil
}

func (d *Driver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if at, ok := d.appearAt[loc]; ok && time.Now().Before(at) {
		return nil, nil
	}
	var out []driver.Element
	for _, el := range d.elements[loc] {
		out = append(out, el)
	}
	return out, nil
}

func (d *Driver) ReadyState(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if time.Now().Before(d.readyAfter) {
		return "interactive", nil
	}
	return "complete", nil
}

func (d *Driver) Sleep(ctx context.Context, dur time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(dur):
		return nil
	}
}

// Package driver is the browser capability surface journeys are written
// against, plus the wait helpers the managed runtime used to provide.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSuchElement is returned by FindElement when nothing matches.
var ErrNoSuchElement = errors.New("no such element")

// By selects how a Locator value is interpreted.
type By string

const (
	ByXPath By = "xpath"
	ByCSS   By = "css selector"
)

// Locator identifies elements in the current document.
type Locator struct {
	By    By
	Value string
}

func XPath(expr string) Locator { return Locator{By: ByXPath, Value: expr} }

func CSS(selector string) Locator { return Locator{By: ByCSS, Value: selector} }

func (l Locator) String() string {
	return fmt.Sprintf("By(%s, %s)", l.By, l.Value)
}

// Rect is a window position and size in CSS pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Capabilities describes the browser session.
type Capabilities map[string]any

// Element is a resolved node in the current document.
type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	IsDisplayed(ctx context.Context) (bool, error)
}

// Driver is one browser session.
type Driver interface {
	Capabilities(ctx context.Context) (Capabilities, error)
	Get(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	SetWindowRect(ctx context.Context, r Rect) error
	FindElement(ctx context.Context, loc Locator) (Element, error)
	FindElements(ctx context.Context, loc Locator) ([]Element, error)
	ReadyState(ctx context.Context) (string, error)
	Sleep(ctx context.Context, d time.Duration) error
}

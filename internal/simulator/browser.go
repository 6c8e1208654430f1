package simulator

import (
	"context"
	"time"

	"github.com/rahul/synthetics/internal/driver"
	"github.com/rahul/synthetics/internal/observability"
)

// DefaultElementWait is the WaitForElement timeout when none is given.
const DefaultElementWait = time.Second

// Browser is the local driver handed to journeys: a plain driver plus the
// platform-only conveniences, which locally are stubs.
type Browser struct {
	driver.Driver
	log *observability.Logger
}

func NewBrowser(d driver.Driver, log *observability.Logger) *Browser {
	return &Browser{Driver: d, log: log}
}

func (b *Browser) AddHeader(name, value string) {
	b.log.Console("$browser.addHeader(): not supported ignoring.")
}

func (b *Browser) AddHeaders(headers map[string]string) {
	b.log.Console("$browser.addHeaders(): not supported ignoring.")
}

// WaitForElement waits for loc to be located, not necessarily visible.
func (b *Browser) WaitForElement(ctx context.Context, loc driver.Locator, timeout time.Duration) (driver.Element, error) {
	if timeout <= 0 {
		timeout = DefaultElementWait
	}
	return driver.WaitForElement(ctx, b.Driver, loc, timeout)
}

package gateway

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rahul/synthetics/internal/journey"
)

// Messenger defines the interface for alert gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Name identifies the gateway in logs
	Name() string
	// Send sends a message to the gateway's configured chat or channel
	Send(text string) error
}

// Escaper is implemented by gateways whose messages use markup. Values taken
// from a run are passed through Escape before they reach the message.
type Escaper interface {
	Escape(text string) string
}

// FormatAlert renders a failed run as a short alert message. A nil escape
// leaves run values as they are.
func FormatAlert(res *journey.Result, descriptor journey.Descriptor, escape func(string) string) string {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *Journey failed: %s*\n", escape(res.Journey))
	if descriptor.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", escape(descriptor.Location))
	}
	fmt.Fprintf(&b, "Run: %s (%s)\n", escape(res.RunID), res.Duration.Round(time.Millisecond))
	if res.HardErr != nil {
		fmt.Fprintf(&b, "\nHard failure: %s\n%s\n", escape(res.HardFailure), escape(res.HardErr.Error()))
	}
	if len(res.Failures) > 0 {
		fmt.Fprintf(&b, "\nSoft failures (%d):\n", len(res.Failures))
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "• %s: %s\n", escape(f.Step), escape(f.Reason))
		}
	}
	return b.String()
}

// Notify sends an alert for res through every messenger. Passing runs are not
// reported. Errors are logged and the first one is returned.
func Notify(messengers []Messenger, res *journey.Result, descriptor journey.Descriptor) error {
	if res.Passed() || len(messengers) == 0 {
		return nil
	}
	var first error
	for _, m := range messengers {
		var escape func(string) string
		if e, ok := m.(Escaper); ok {
			escape = e.Escape
		}
		text := FormatAlert(res, descriptor, escape)
		if err := m.Send(text); err != nil {
			log.Printf("Failed to send %s alert: %v", m.Name(), err)
			if first == nil {
				first = fmt.Errorf("%s: %w", m.Name(), err)
			}
		}
	}
	return first
}

package gateway

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/synthetics/internal/journey"
)

type fakeMessenger struct {
	name string
	err  error
	sent []string
}

func (f *fakeMessenger) Name() string { return f.name }

func (f *fakeMessenger) Send(text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func failedRun() *journey.Result {
	return &journey.Result{
		RunID:       "run-1",
		Journey:     "newrelic-search",
		Duration:    1500 * time.Millisecond,
		HardFailure: "Step 3: [Search:1] -> Click search icon",
		HardErr:     errors.New("TimeoutError: Timed-out waiting for element"),
		Failures:    []journey.Failure{{Step: "Step 2: [Setup:2] - x", Reason: "R"}},
	}
}

func TestFormatAlert(t *testing.T) {
	text := FormatAlert(failedRun(), journey.Descriptor{Location: "AWS_US_EAST_1"}, nil)

	assert.Contains(t, text, "Journey failed: newrelic-search")
	assert.Contains(t, text, "Location: AWS_US_EAST_1")
	assert.Contains(t, text, "Run: run-1 (1.5s)")
	assert.Contains(t, text, "Hard failure: Step 3: [Search:1] -> Click search icon")
	assert.Contains(t, text, "Soft failures (1):\n• Step 2: [Setup:2] - x: R\n")
}

func TestFormatAlert_TelegramEscapesRunValues(t *testing.T) {
	res := failedRun()
	res.HardErr = errors.New("element `#main` not found at https://example.com/a_b")
	tg := &TelegramGateway{}

	text := FormatAlert(res, journey.Descriptor{Location: "AWS_US_EAST_1"}, tg.Escape)

	assert.True(t, strings.HasPrefix(text, "🚨 *Journey failed: newrelic-search*\n"), "markup around the title is kept")
	assert.Contains(t, text, "Location: AWS\\_US\\_EAST\\_1\n")
	assert.Contains(t, text, "Hard failure: Step 3: \\[Search:1] -> Click search icon")
	assert.Contains(t, text, "element \\`#main\\` not found at https://example.com/a\\_b")
}

func TestNotify_EscapesPerGateway(t *testing.T) {
	plain := &fakeMessenger{name: "plain"}
	marked := &escapingMessenger{fakeMessenger{name: "marked"}}

	require.NoError(t, Notify([]Messenger{plain, marked}, failedRun(), journey.Descriptor{Location: "a_b"}))
	assert.Contains(t, plain.sent[0], "Location: a_b\n")
	assert.Contains(t, marked.sent[0], "Location: a<_>b\n")
}

type escapingMessenger struct {
	fakeMessenger
}

func (e *escapingMessenger) Escape(text string) string {
	return strings.ReplaceAll(text, "_", "<_>")
}

func TestNotify(t *testing.T) {
	ok := &fakeMessenger{name: "ok"}
	broken := &fakeMessenger{name: "broken", err: errors.New("network down")}

	err := Notify([]Messenger{broken, ok}, failedRun(), journey.Descriptor{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "broken: "))
	assert.Len(t, ok.sent, 1, "a failing gateway does not stop the others")
	assert.Len(t, broken.sent, 1)
}

func TestNotify_PassedRunIsSilent(t *testing.T) {
	m := &fakeMessenger{name: "m"}
	require.NoError(t, Notify([]Messenger{m}, &journey.Result{RunID: "r"}, journey.Descriptor{}))
	assert.Empty(t, m.sent)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}

func TestNewTelegramGateway_InvalidChatID(t *testing.T) {
	_, err := NewTelegramGateway("token", "not-a-number")
	assert.ErrorContains(t, err, "invalid chat ID")
}

func TestNewDiscordGateway(t *testing.T) {
	_, err := NewDiscordGateway("token", "")
	assert.Error(t, err)

	dg, err := NewDiscordGateway("token", "123")
	require.NoError(t, err)
	assert.Equal(t, "discord", dg.Name())
	assert.NotNil(t, dg.Session)
}

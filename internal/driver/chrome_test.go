package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNoBoxModel(t *testing.T) {
	noBox := errors.New("Could not compute box model. (-32000)")
	assert.True(t, isNoBoxModel(noBox))
	assert.True(t, isNoBoxModel(fmt.Errorf("run: %w", noBox)))
	assert.False(t, isNoBoxModel(errors.New("No node with given id found (-32000)")))
	assert.False(t, isNoBoxModel(nil))
}

func TestChromeStart_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewChrome(ChromeOptions{Headless: true, ExecPath: "/nonexistent/chrome"})
	err := c.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, c.browserCtx, "a cancelled launch leaves no session behind")
	assert.NoError(t, c.Close())
}

func TestChromeRun_NotStarted(t *testing.T) {
	_, err := NewChrome(ChromeOptions{}).CurrentURL(context.Background())
	assert.EqualError(t, err, "browser session not started")
}

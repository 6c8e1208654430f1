package journeys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/synthetics/internal/driver"
	"github.com/rahul/synthetics/internal/driver/drivertest"
	"github.com/rahul/synthetics/internal/journey"
	"github.com/rahul/synthetics/internal/observability"
)

type fakeHTTP struct {
	article *journey.Article
	err     error
	urls    []string
}

func (f *fakeHTTP) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeHTTP) Readable(ctx context.Context, url string) (*journey.Article, error) {
	f.urls = append(f.urls, url)
	return f.article, f.err
}

type page struct {
	d       *drivertest.Driver
	trigger *drivertest.Element
	input   *drivertest.Element
	submit  *drivertest.Element
	docs    *drivertest.Element
}

func newSearchPage(summary string, results int) *page {
	p := &page{
		d:       drivertest.New(),
		trigger: &drivertest.Element{Visible: true},
		input:   &drivertest.Element{Visible: true},
		submit:  &drivertest.Element{Visible: true},
		docs:    &drivertest.Element{Visible: true},
	}
	p.d.Add(locSearchTrigger, p.trigger)
	p.d.Add(locSearchInput, p.input)
	p.d.Add(locSearchSubmit, p.submit)
	p.d.Add(locResultSummary, &drivertest.Element{Visible: true, Content: summary})
	for i := 0; i < results; i++ {
		p.d.Add(locResults, &drivertest.Element{Visible: true, Content: fmt.Sprintf("result %d", i)})
	}
	p.d.Add(locFirstDocsLink, p.docs)
	p.d.Add(locHeader, &drivertest.Element{Visible: true, Content: "Introduction to APM"})
	return p
}

func runSearch(t *testing.T, p *page, client journey.HTTPClient) (*journey.Result, string) {
	t.Helper()
	j := NewRelicSearch(Options{StartURL: "https://example.test/", Timeout: 50 * time.Millisecond, Pause: time.Millisecond})
	var out bytes.Buffer
	env := &journey.Env{Driver: p.d, HTTP: client}
	res, err := j.Run(context.Background(), env, observability.NewLogger(&out, ""))
	require.NoError(t, err)
	return res, out.String()
}

func TestNewRelicSearch_HappyPath(t *testing.T) {
	p := newSearchPage("Showing 1–10 of 532 results for apm", 10)
	h := &fakeHTTP{article: &journey.Article{Title: "Introduction to APM", Text: "APM helps you..."}}

	res, out := runSearch(t, p, h)

	assert.True(t, res.Passed(), out)
	assert.Equal(t, []string{"https://example.test/"}, p.d.Visited())
	assert.Equal(t, driver.Rect{Width: 2328, Height: 1667}, p.d.Rect())
	assert.Equal(t, 1, p.trigger.Clicks())
	assert.Equal(t, "apm", p.input.Typed())
	assert.Equal(t, 1, p.submit.Clicks())
	assert.Equal(t, 1, p.docs.Clicks())
	assert.Equal(t, []string{"https://example.test/"}, h.urls)

	// The header check is OPTIONAL and fails on purpose.
	assert.Contains(t, out, "This is an OPTIONAL step so this error will not fail the journey.")
	assert.Contains(t, out, "START  Step 8: [Search:6] start:")
	assert.Contains(t, out, "-> Sleep a moment")
	assert.NotContains(t, out, "Unlogged sleep")
	assert.Contains(t, out, "Journey completed successfully")
	assert.Len(t, res.Steps, 11)
}

func TestNewRelicSearch_SoftFailures(t *testing.T) {
	p := newSearchPage("No results", 3)
	h := &fakeHTTP{err: errors.New("status code 503")}

	res, out := runSearch(t, p, h)

	assert.False(t, res.Passed())
	require.Len(t, res.Failures, 3)
	assert.Equal(t, "Step 6: [Search:4] - Check results text is shown", res.Failures[0].Step)
	assert.Equal(t, "Step 7: [Search:5] - Check 10 results shown on page", res.Failures[1].Step)
	assert.Equal(t, "Step 11: [Docs Content:1] - Docs page has a title and body", res.Failures[2].Step)
	assert.Equal(t, 1, p.docs.Clicks(), "soft failures do not stop the journey")
	assert.EqualError(t, res.Err(), "Journey failed: There were 3 soft step failures.")
	assert.Contains(t, out, "Journey failed: 3 soft failures detected:")
}

func TestNewRelicSearch_MissingSearchIcon(t *testing.T) {
	p := newSearchPage("Showing 1–10 of 532 results for apm", 10)
	p.d = drivertest.New()

	res, out := runSearch(t, p, &fakeHTTP{})

	assert.Equal(t, "Step 3: [Search:1] -> Click search icon", res.HardFailure)
	assert.ErrorIs(t, res.HardErr, driver.ErrTimeout)
	assert.Len(t, res.Steps, 3)
	assert.NotContains(t, out, "Type a search term")
	assert.Contains(t, out, "Journey failed: there was a hard step failure.")
}

func TestRegistry(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{NewRelicSearchName}, r.Names())

	j, err := r.Get(NewRelicSearchName, Options{})
	require.NoError(t, err)
	require.NoError(t, j.Validate())
	assert.Equal(t, "Window Setup", j.Categories[0].Name)
	assert.Equal(t, "Search", j.Categories[1].Name)

	_, err = r.Get("nope", Options{})
	assert.ErrorContains(t, err, `unknown journey "nope"`)
}

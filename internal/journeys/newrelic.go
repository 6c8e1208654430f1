package journeys

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rahul/synthetics/internal/driver"
	"github.com/rahul/synthetics/internal/journey"
)

const (
	NewRelicSearchName = "newrelic-search"
	NewRelicStartURL   = "https://newrelic.com/"

	// DefaultTimeout bounds every element wait in the bundled journeys.
	DefaultTimeout = 5 * time.Second

	searchTerm = "apm"
)

var (
	locSearchTrigger = driver.XPath("//div[@id='header-main']//button[contains(@class,'header-search-trigger')]")
	locSearchInput   = driver.XPath("//input[contains(@class,'js-full-text-search')]")
	locSearchSubmit  = driver.XPath("//button[contains(@class,'js-search-form-submit')]")
	locResultSummary = driver.XPath("//div[contains(@class,'st-app-results__summary')]")
	locResults       = driver.XPath("//div[@id='nr-search-app']//div[@class='st-app-results']/div[contains(@class,'st-app-result')]")
	locFirstDocsLink = driver.XPath("//div[@id='nr-search-app']//div[@class='st-app-results']/div[contains(@class,'st-app-result')][descendant::a[contains(@href,'docs.newrelic.com')]][1]")
	locHeader        = driver.XPath("//h1")
)

// NewRelicSearch searches newrelic.com for "apm", checks the results page and
// follows the first documentation hit.
func NewRelicSearch(opts Options) *journey.Journey {
	if opts.StartURL == "" {
		opts.StartURL = NewRelicStartURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Pause <= 0 {
		opts.Pause = time.Second
	}
	return &journey.Journey{
		Name:        NewRelicSearchName,
		Description: "Search newrelic.com and open the first docs result",
		Categories: []journey.Category{
			windowSetup(opts.StartURL),
			search(opts.Timeout, opts.Pause),
			docsContent(),
		},
	}
}

func windowSetup(startURL string) journey.Category {
	return journey.Category{
		Name:        "Window Setup",
		Description: "Setup browser window and resize",
		Steps: []journey.Step{
			journey.NewStep(journey.Hard, "Open Start URL", func(ctx context.Context, env *journey.Env) error {
				return env.Driver.Get(ctx, startURL)
			}),
			journey.NewStep(journey.Hard, "Set Window Size", func(ctx context.Context, env *journey.Env) error {
				return env.Driver.SetWindowRect(ctx, driver.Rect{X: 0, Y: 0, Width: 2328, Height: 1667})
			}),
		},
	}
}

func click(loc driver.Locator, timeout time.Duration) journey.Action {
	return func(ctx context.Context, env *journey.Env) error {
		e, err := driver.WaitForAndFindElement(ctx, env.Driver, loc, timeout)
		if err != nil {
			return err
		}
		return e.Click(ctx)
	}
}

func search(timeout, pause time.Duration) journey.Category {
	return journey.Category{
		Name:        "Search",
		Description: "Test search features",
		Steps: []journey.Step{
			journey.NewStep(journey.Hard, "Click search icon", click(locSearchTrigger, timeout)),

			journey.NewStep(journey.Hard, "Type a search term", func(ctx context.Context, env *journey.Env) error {
				e, err := driver.WaitForAndFindElement(ctx, env.Driver, locSearchInput, timeout)
				if err != nil {
					return err
				}
				return e.SendKeys(ctx, searchTerm)
			}),

			journey.NewStep(journey.Hard, "Click submit search icon", click(locSearchSubmit, timeout)),

			journey.NewStep(journey.Soft, "Check results text is shown", func(ctx context.Context, env *journey.Env) error {
				e, err := driver.WaitForAndFindElement(ctx, env.Driver, locResultSummary, timeout)
				if err != nil {
					return err
				}
				text, err := e.Text(ctx)
				if err != nil {
					return err
				}
				return journey.Assert(strings.Contains(text, "Showing 1–10") && strings.Contains(text, searchTerm), "")
			}),

			journey.NewStep(journey.Soft, "Check 10 results shown on page", func(ctx context.Context, env *journey.Env) error {
				results, err := env.Driver.FindElements(ctx, locResults)
				if err != nil {
					return err
				}
				return journey.Assert(len(results) == 10, "")
			}),

			journey.Delay("Unlogged sleep", pause, false),
			journey.Delay("Sleep a moment", pause, true),

			journey.NewStep(journey.Hard, "Find and click first docs link", click(locFirstDocsLink, timeout)),

			// Expected to fail: shows that an OPTIONAL step never fails the journey.
			journey.NewStep(journey.Optional, "Confirm header text is correct", func(ctx context.Context, env *journey.Env) error {
				e, err := driver.WaitForAndFindElement(ctx, env.Driver, locHeader, timeout)
				if err != nil {
					return err
				}
				text, err := e.Text(ctx)
				if err != nil {
					return err
				}
				return journey.Equal(text, "Some header we expect to fail")
			}),
		},
	}
}

func docsContent() journey.Category {
	return journey.Category{
		Name:        "Docs Content",
		Description: "Check the opened docs page has readable content",
		Steps: []journey.Step{
			journey.NewStep(journey.Soft, "Docs page has a title and body", func(ctx context.Context, env *journey.Env) error {
				if env.HTTP == nil {
					return errors.New("no HTTP client in environment")
				}
				url, err := env.Driver.CurrentURL(ctx)
				if err != nil {
					return err
				}
				article, err := env.HTTP.Readable(ctx, url)
				if err != nil {
					return err
				}
				if env.Insights != nil {
					env.Insights.Set("docsTitle", article.Title)
				}
				return journey.Assert(article.Title != "" && article.Text != "", "docs page at "+url+" has no readable content")
			}),
		},
	}
}

package journey

import (
	"context"
	"net/http"

	"github.com/rahul/synthetics/internal/driver"
)

// Descriptor describes the monitor the journey runs as.
type Descriptor struct {
	JobID       int    `json:"JOB_ID" yaml:"job_id"`
	MonitorType string `json:"MONITOR_TYPE" yaml:"monitor_type"`
	APIVersion  string `json:"API_VERSION" yaml:"api_version"`
	Location    string `json:"LOCATION" yaml:"location"`
	ProxyHost   string `json:"PROXY_HOST" yaml:"proxy_host"`
	ProxyPort   int    `json:"PROXY_PORT" yaml:"proxy_port"`
}

// Insights is the custom-attribute store the platform exposes to scripts.
type Insights interface {
	Set(key string, value any)
	Get(key string) (any, bool)
	GetKeys() []string
	Has(key string) bool
	Unset(key string)
	UnsetAll()
}

// HeaderSetter adds request headers to browser traffic.
type HeaderSetter interface {
	AddHeader(name, value string)
	AddHeaders(headers map[string]string)
}

// Article is the readable content of a page.
type Article struct {
	Title   string
	Excerpt string
	Text    string
}

// HTTPClient is the plain HTTP client available to steps.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
	Readable(ctx context.Context, url string) (*Article, error)
}

// Env is everything the hosting runtime hands a journey. It is built by the
// harness and passed to every step action.
type Env struct {
	Driver     driver.Driver
	Descriptor Descriptor
	Insights   Insights
	Headers    HeaderSetter
	HTTP       HTTPClient
}

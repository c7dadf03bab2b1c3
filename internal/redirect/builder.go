// Package redirect builds the post-exchange redirect URL.
package redirect

import (
	"net/url"
	"strings"
)

// stepMarker is always appended so the landing page knows the flow position.
const stepMarker = "2"

// Params are the caller-supplied values considered for forwarding.
// Referrer is accepted for server-side logging only and is never placed in
// the URL; forwarding a free-form referrer would open parameter injection
// through this field.
type Params struct {
	Price    string
	Billing  string
	Referrer string
}

// Builder assembles the redirect target from a fixed base and path plus an
// allow-listed subset of parameters.
type Builder struct {
	// BaseURL is the application's own origin, used when the request's
	// origin cannot be trusted. Empty means a relative redirect.
	BaseURL string

	// Path is the fixed target path.
	Path string
}

func New(baseURL, path string) Builder {
	if path == "" {
		path = "/dashboard/billing/plans"
	}
	return Builder{BaseURL: strings.TrimRight(baseURL, "/"), Path: path}
}

// Build returns the final redirect URL. Values are trimmed; empty values
// are omitted entirely.
func (b Builder) Build(p Params) string {
	q := url.Values{}
	if v := strings.TrimSpace(p.Price); v != "" {
		q.Set("price", v)
	}
	if v := strings.TrimSpace(p.Billing); v != "" {
		q.Set("billing", v)
	}
	q.Set("step", stepMarker)

	return b.BaseURL + b.Path + "?" + q.Encode()
}

// Package sso holds the transport types for the token-exchange endpoint.
package sso

import "github.com/sinaneshat/billing-dashboard-sub005/internal/session"

// ExchangeRequest carries the exchange inputs from the query string (GET)
// or, through the compatibility shim, a re-encoded form body.
type ExchangeRequest struct {
	Token    string
	Product  string
	Price    string
	Billing  string
	Referrer string
}

// ExchangeResult is the successful outcome: where to send the browser and,
// unless an existing session was reused, the session to attach.
type ExchangeResult struct {
	RedirectURL string

	// Session is nil when an existing session was reused; the artifact is
	// already on the request in that case.
	Session *session.Session

	SessionReused bool
}

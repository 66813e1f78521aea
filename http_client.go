package main

import (
	"net/http"
	"time"
)

// Ceiling for one outbound sink call. Retry policy, if any, belongs to the
// caller, never to the transport.
const externalHTTPTimeout = 30 * time.Second

// externalHTTPClient is the default client for webhook dispatches when no
// per-config client is built.
var externalHTTPClient = &http.Client{
	Timeout: externalHTTPTimeout,
}

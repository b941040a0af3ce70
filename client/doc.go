// Package client is the HTTP-layer middleware the finance app's UI talks
// through. Every outgoing request gets a bearer credential, a request id,
// and a route-specific timeout; transient failures are retried with
// exponential backoff, and concurrent 401s are absorbed into exactly one
// token refresh whose outcome all contenders share.
package client

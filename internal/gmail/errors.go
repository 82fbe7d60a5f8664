package gmail

import "errors"

// ErrAuthUnavailable means no valid credential could be produced: nothing was
// stored, refresh failed unrecoverably, and the configured flow cannot (or may
// not) obtain a new one. Fatal to the invocation.
var ErrAuthUnavailable = errors.New("gmail: no valid credential available")

// ErrConfigUnavailable means no OAuth client configuration could be resolved
// from any configured source. Fatal to the invocation.
var ErrConfigUnavailable = errors.New("gmail: oauth client configuration not found")

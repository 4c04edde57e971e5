package rerank

import "errors"

// ErrNotConfigured is returned by a Ranker that has no endpoint to call.
var ErrNotConfigured = errors.New("ranking service not configured")

// ErrMalformedResponse means the ranking service answered with something
// that could not be parsed into ids.
var ErrMalformedResponse = errors.New("malformed ranking response")

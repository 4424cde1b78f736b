package domain

import "errors"

var (
	// ErrUpstreamFetch means the ephemeris feed was unreachable or answered non-2xx.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrMalformedFeed means the feed document lacks the expected structure.
	ErrMalformedFeed = errors.New("malformed feed")

	// ErrMalformedRecord means a stored state vector has an unparseable epoch.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrNotFound means no state vector matches the requested epoch.
	ErrNotFound = errors.New("epoch not found")

	// ErrDataUnavailable means there are no state vectors to resolve against.
	ErrDataUnavailable = errors.New("ephemeris data unavailable")

	// ErrCacheMiss is returned by blob stores when the key does not exist.
	ErrCacheMiss = errors.New("cache miss")
)

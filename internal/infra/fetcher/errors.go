package fetcher

import "errors"

// Sentinel errors returned by ReadabilityFetcher. The episode pipeline treats all
// of them as "keep the provider's text".
var (
	ErrInvalidURL        = errors.New("invalid url")
	ErrPrivateIP         = errors.New("url resolves to a private ip")
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrBodyTooLarge      = errors.New("response body too large")
	ErrTimeout           = errors.New("content fetch timed out")
	ErrReadabilityFailed = errors.New("readability extraction failed")
)

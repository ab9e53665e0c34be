// Package log provides logging with automatic masking of credentials,
// built on top of the standard slog package.
//
// Crawl logs are full of URLs and request metadata. Site configurations
// put cookies, API keys, and authorization headers into requests, and
// documentation portals sometimes gate access behind token query
// parameters or userinfo URLs. The RedactHandler masks all of those
// before a record reaches its output, so a shared crawl log never leaks
// an access secret:
//   - Attribute keys that name credentials (Authorization, Cookie, api_key)
//   - Values that look like credentials (JWT, bearer and basic auth, long keys)
//   - Credentials embedded in URL values (userinfo, token query parameters)
//
// Even in verbose mode, masked values stay masked.
//
// # Usage
//
//	logger := log.NewRedactLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("request sent",
//	    "cookie", "session=abc123",                       // masked
//	    "url", "https://docs.example.com/?token=tk_1234", // token masked
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log

// Package httputil provides shared HTTP response/request utilities for
// the authenticated API handlers.
//
// Handler files should use these helpers instead of writing raw
// http.ResponseWriter calls so error envelopes and JSON formatting stay
// consistent across endpoints. The public tracking handlers deliberately
// do not use this package: they never return JSON or error statuses.
package httputil

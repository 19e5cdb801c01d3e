// Package memory provides in-memory implementations of the engagement
// repositories. They back unit tests and stub runs of the servers; error
// injection fields let tests force the degraded paths (fallback
// aggregation, click-log-unavailable reports) deterministically.
package memory

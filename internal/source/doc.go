// Package source implements the authenticated, paged retrieval of a source
// account's media-bearing posts: cookie-bundle parsing, host failover,
// credential rotation, rate-limit/auth classification, and the two-step
// GraphQL-style query protocol (resolve handle, then page the timeline).
package source

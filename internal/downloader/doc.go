// Package downloader streams a single remote media URL to a deterministic
// local path. It performs no retries; retry policy lives one level up in the
// sync engine, composed from internal/retry.
package downloader

// Package sink defines the outbound delivery surface used by the sync
// engine (media groups, plain text reports, health checks) and a Telegram
// MTProto implementation of it, alongside an in-memory fake for tests.
package sink

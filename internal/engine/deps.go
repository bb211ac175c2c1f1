package engine

import (
	"context"
	"time"

	"archivist/internal/downloader"
	"archivist/internal/sink"
	"archivist/internal/source"
	"archivist/internal/state"
)

// Source is the subset of internal/source's Client the engine depends on.
type Source interface {
	ListPostsWithMedia(ctx context.Context, req source.ListPostsRequest) (source.ListPostsResult, error)
}

// StateStore is the subset of internal/state's Store the engine depends on.
type StateStore interface {
	GetAccount(ctx context.Context, handle string) (state.AccountCursor, error)
	PutAccount(ctx context.Context, cursor state.AccountCursor) error
	IsMediaUploaded(ctx context.Context, mediaKey string) (bool, error)
	MarkMedia(ctx context.Context, record state.MediaRecord) error
	AcquireLock(ctx context.Context, jobName, holderID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, jobName, holderID string) error
}

// Downloader is the subset of internal/downloader's Downloader the engine depends on.
type Downloader interface {
	Download(ctx context.Context, req downloader.Request) (downloader.LocalFile, error)
}

// Sink is re-exported so callers don't need to import internal/sink directly
// just to build an Engine.
type Sink = sink.Sink

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"archivist/internal/downloader"
	"archivist/internal/logging"
	"archivist/internal/retry"
	"archivist/internal/sink"
	"archivist/internal/source"
	"archivist/internal/state"
)

const lockJobName = "daily-sync"

// Config parameterizes a single Engine instance from the process-wide
// configuration surface.
type Config struct {
	Accounts            []string
	PageLimit           int
	MaxMediaPerRun      int
	DownloadDir         string
	LockTTL             time.Duration
	RateLimitCooldown   time.Duration
	MaxUploadVideoBytes int64
}

// Engine runs the daily sync algorithm across every configured account.
type Engine struct {
	cfg        Config
	store      StateStore
	source     Source
	downloader Downloader
	sink       Sink
	logger     *slog.Logger

	now          func() time.Time
	downloadRetry retry.Policy
	sendRetry     retry.Policy
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's notion of "now", for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRetryPolicies overrides the download/send retry schedules, primarily
// so tests can substitute a no-sleep policy.
func WithRetryPolicies(download, send retry.Policy) Option {
	return func(e *Engine) { e.downloadRetry = download; e.sendRetry = send }
}

// New builds an Engine wired to its collaborators. Download retries default
// to 3 attempts starting at 1s (factor 2); send retries default to 3
// attempts starting at 1.5s (factor 2), per §4.5.1.
func New(cfg Config, store StateStore, src Source, dl Downloader, snk Sink, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg: cfg, store: store, source: src, downloader: dl, sink: snk, logger: logger,
		now:           time.Now,
		downloadRetry: retry.New(3, time.Second, 2),
		sendRetry:     retry.New(3, 1500*time.Millisecond, 2),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AccountSummary reports the outcome of processing one configured account.
type AccountSummary struct {
	Handle                string
	Uploaded              int
	Skipped               int
	Failed                int
	IncrementalCandidates int
	IncrementalSelected   int
	BackfillCandidates    int
	BackfillSelected      int
	BackfillDone          bool
	CooldownActive        bool
	CooldownUntil         *time.Time
}

// RunSummary reports the outcome of a single Run call.
type RunSummary struct {
	SkippedByLock bool
	StartedAt     time.Time
	FinishedAt    time.Time
	Accounts      []AccountSummary
}

// Run executes one full sync pass across every configured account.
func (e *Engine) Run(ctx context.Context) (RunSummary, error) {
	startedAt := e.now()
	holderID := fmt.Sprintf("sync-%d-%s", os.Getpid(), uuid.NewString())

	if err := os.MkdirAll(e.cfg.DownloadDir, 0o755); err != nil {
		return RunSummary{}, fmt.Errorf("ensure download scratch dir: %w", err)
	}

	acquired, err := e.store.AcquireLock(ctx, lockJobName, holderID, e.cfg.LockTTL)
	if err != nil {
		return RunSummary{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		e.logger.Info("sync run skipped: lock held", logging.String("holder_id", holderID))
		return RunSummary{SkippedByLock: true, StartedAt: startedAt, FinishedAt: e.now()}, nil
	}
	defer func() {
		if err := e.store.ReleaseLock(context.WithoutCancel(ctx), lockJobName, holderID); err != nil {
			e.logger.Warn("release sync lock failed", logging.Error(err))
		}
	}()

	summaries := make([]AccountSummary, 0, len(e.cfg.Accounts))
	for _, handle := range e.cfg.Accounts {
		summaries = append(summaries, e.runAccount(ctx, handle))
	}

	e.sendRunReport(ctx, summaries)

	return RunSummary{
		StartedAt:  startedAt,
		FinishedAt: e.now(),
		Accounts:   summaries,
	}, nil
}

func (e *Engine) runAccount(ctx context.Context, rawHandle string) AccountSummary {
	handle := source.NormalizeHandle(rawHandle)
	summary := AccountSummary{Handle: handle}
	now := e.now()

	cursor, err := e.store.GetAccount(ctx, handle)
	if err != nil {
		summary.Failed = 1
		e.reportFailure(ctx, handle, fmt.Errorf("load cursor: %w", err))
		return summary
	}
	if cursor.InCooldown(now) {
		summary.CooldownActive = true
		summary.CooldownUntil = cursor.RateLimitedUntil
		summary.BackfillDone = cursor.BackfillDone
		e.logger.Info("account in cooldown, skipping", logging.Account(handle))
		return summary
	}

	incremental, newestSeenID, err := e.fetchIncremental(ctx, handle, cursor)
	if err != nil {
		e.handleAccountError(ctx, handle, cursor, err, &summary)
		return summary
	}

	backfill, nextCursor, backfillDone, err := e.fetchBackfill(ctx, handle, cursor)
	if err != nil {
		e.handleAccountError(ctx, handle, cursor, err, &summary)
		return summary
	}

	incrementalIDs, backfillIDs, candidates := mergeCandidates(incremental, backfill)
	summary.IncrementalCandidates = len(incrementalIDs)
	summary.BackfillCandidates = len(backfillIDs)

	selected, incrementalSelected, backfillSelected := selectWithinBudget(candidates, incrementalIDs, e.cfg.MaxMediaPerRun)
	summary.IncrementalSelected = incrementalSelected
	summary.BackfillSelected = backfillSelected

	for _, post := range selected {
		uploaded, skipped, failed := e.processPost(ctx, handle, post)
		summary.Uploaded += uploaded
		summary.Skipped += skipped
		summary.Failed += failed
	}

	summary.BackfillDone = backfillDone
	if err := e.store.PutAccount(ctx, state.AccountCursor{
		Handle:           handle,
		LatestSeenPostID: newestSeenID,
		BackfillCursor:   nextCursor,
		BackfillDone:     backfillDone,
		RateLimitedUntil: nil,
	}); err != nil {
		e.logger.Warn("persist cursor failed", logging.Account(handle), logging.Error(err))
	}
	return summary
}

func (e *Engine) handleAccountError(ctx context.Context, handle string, cursor state.AccountCursor, err error, summary *AccountSummary) {
	summary.Failed = 1
	if source.IsRateLimit(err) {
		until := e.now().Add(e.cfg.RateLimitCooldown)
		summary.CooldownActive = true
		summary.CooldownUntil = &until
		if putErr := e.store.PutAccount(ctx, state.AccountCursor{
			Handle:           handle,
			LatestSeenPostID: cursor.LatestSeenPostID,
			BackfillCursor:   cursor.BackfillCursor,
			BackfillDone:     cursor.BackfillDone,
			RateLimitedUntil: &until,
		}); putErr != nil {
			e.logger.Warn("persist cooldown cursor failed", logging.Account(handle), logging.Error(putErr))
		}
		e.logger.Info("account rate-limited, entering cooldown",
			logging.Account(handle), logging.Error(err))
		return
	}

	e.logger.Warn("account sync failed", logging.Account(handle), logging.Error(err))
	e.reportFailure(ctx, handle, err)
}

func (e *Engine) reportFailure(ctx context.Context, handle string, err error) {
	if sendErr := e.sink.SendText(ctx, fmt.Sprintf("sync failed for @%s: %s", handle, err.Error())); sendErr != nil {
		e.logger.Warn("send failure report failed", logging.Account(handle), logging.Error(sendErr))
	}
}

func (e *Engine) fetchIncremental(ctx context.Context, handle string, cursor state.AccountCursor) ([]source.Post, string, error) {
	result, err := e.source.ListPostsWithMedia(ctx, source.ListPostsRequest{
		Handle:    handle,
		Direction: source.DirectionNewer,
		PageLimit: e.cfg.PageLimit,
	})
	if err != nil {
		return nil, "", err
	}

	newestSeenID := cursor.LatestSeenPostID
	if len(result.Posts) > 0 {
		newestSeenID = result.Posts[0].ID
	}
	if cursor.LatestSeenPostID == "" {
		return result.Posts, newestSeenID, nil
	}

	accepted := make([]source.Post, 0, len(result.Posts))
	for _, post := range result.Posts {
		if post.ID == cursor.LatestSeenPostID {
			break
		}
		accepted = append(accepted, post)
	}
	return accepted, newestSeenID, nil
}

func (e *Engine) fetchBackfill(ctx context.Context, handle string, cursor state.AccountCursor) ([]source.Post, string, bool, error) {
	if cursor.BackfillDone {
		return nil, cursor.BackfillCursor, true, nil
	}
	result, err := e.source.ListPostsWithMedia(ctx, source.ListPostsRequest{
		Handle:    handle,
		Direction: source.DirectionOlder,
		Cursor:    cursor.BackfillCursor,
		PageLimit: e.cfg.PageLimit,
	})
	if err != nil {
		return nil, "", false, err
	}
	return result.Posts, result.NextCursor, result.NextCursor == "", nil
}

// mergeCandidates unions incremental and backfill posts (deduplicated by
// id, sorted ascending by numeric id) and reports which ids came from the
// incremental set.
func mergeCandidates(incremental, backfill []source.Post) (incrementalIDs map[string]bool, backfillIDs map[string]bool, merged []source.Post) {
	incrementalIDs = make(map[string]bool, len(incremental))
	seen := make(map[string]bool, len(incremental)+len(backfill))
	var all []source.Post
	for _, p := range incremental {
		if !seen[p.ID] {
			seen[p.ID] = true
			incrementalIDs[p.ID] = true
			all = append(all, p)
		}
	}
	backfillIDs = make(map[string]bool, len(backfill))
	for _, p := range backfill {
		if !seen[p.ID] {
			seen[p.ID] = true
			backfillIDs[p.ID] = true
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return numericID(all[i].ID) < numericID(all[j].ID) })
	return incrementalIDs, backfillIDs, all
}

func numericID(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// selectWithinBudget traverses incremental-candidates first then
// backfill-candidates, selecting posts until the media budget is consumed.
// A post whose media count exceeds the remaining budget is skipped unless
// nothing has been selected yet, in which case it is taken anyway (bounding
// the worst case to one oversized selection).
func selectWithinBudget(candidates []source.Post, incrementalIDs map[string]bool, maxMediaPerRun int) (selected []source.Post, incrementalSelected, backfillSelected int) {
	var incrementalCandidates, backfillCandidates []source.Post
	for _, p := range candidates {
		if incrementalIDs[p.ID] {
			incrementalCandidates = append(incrementalCandidates, p)
		} else {
			backfillCandidates = append(backfillCandidates, p)
		}
	}

	budget := maxMediaPerRun
	take := func(posts []source.Post) int {
		takenCount := 0
		for _, p := range posts {
			if budget <= 0 {
				break
			}
			if p.MediaCount() > budget && len(selected) > 0 {
				continue
			}
			selected = append(selected, p)
			budget -= p.MediaCount()
			takenCount++
		}
		return takenCount
	}
	incrementalSelected = take(incrementalCandidates)
	backfillSelected = take(backfillCandidates)
	return selected, incrementalSelected, backfillSelected
}

// processPost runs the per-post download-then-send pipeline described in
// §4.5.1, always cleaning up downloaded files before returning.
func (e *Engine) processPost(ctx context.Context, handle string, post source.Post) (uploaded, skipped, failed int) {
	var downloaded []downloader.LocalFile
	defer func() {
		for _, f := range downloaded {
			_ = os.Remove(f.Path)
		}
	}()

	var toSend []downloader.LocalFile
	for _, media := range post.Media {
		mediaKey := state.MediaKey(post.ID, media.URL)
		alreadyUploaded, err := e.store.IsMediaUploaded(ctx, mediaKey)
		if err != nil {
			e.logger.Warn("check media dedupe failed", logging.Account(handle), logging.PostID(post.ID), logging.Error(err))
			failed++
			return uploaded, skipped, failed
		}
		if alreadyUploaded {
			skipped++
			continue
		}

		var file downloader.LocalFile
		err = e.downloadRetry.Do(ctx, func(ctx context.Context) error {
			var derr error
			file, derr = e.downloader.Download(ctx, downloader.Request{
				MediaKey: mediaKey, MediaURL: media.URL, MediaType: media.Type, Dir: filepath.Join(e.cfg.DownloadDir, handle),
			})
			return derr
		})
		if err != nil {
			e.logger.Warn("download media failed", logging.Account(handle), logging.PostID(post.ID), logging.MediaURL(media.URL), logging.Error(err))
			failed++
			return uploaded, skipped, failed
		}
		downloaded = append(downloaded, file)

		if media.Type != state.MediaPhoto && file.SizeBytes > e.cfg.MaxUploadVideoBytes {
			if err := e.store.MarkMedia(ctx, state.MediaRecord{
				MediaKey: mediaKey, PostID: post.ID, AccountHandle: handle, MediaURL: media.URL,
				MediaType: media.Type, Status: state.MediaSkippedOversize,
			}); err != nil {
				e.logger.Warn("mark oversize media failed", logging.Account(handle), logging.Error(err))
			}
			e.logger.Info("skipping oversize video",
				logging.Account(handle), logging.PostID(post.ID), logging.Bytes(file.SizeBytes),
				logging.String("max_bytes", humanize.Bytes(uint64(e.cfg.MaxUploadVideoBytes))))
			skipped++
			continue
		}
		toSend = append(toSend, file)
	}

	if len(toSend) == 0 {
		return uploaded, skipped, failed
	}

	postURL := fmt.Sprintf("https://twitter.com/%s/status/%s", handle, post.ID)
	var result sink.MediaGroupResult
	err := e.sendRetry.Do(ctx, func(ctx context.Context) error {
		var serr error
		result, serr = e.sink.SendMediaGroup(ctx, sink.MediaGroupRequest{
			PostURL: postURL, Handle: handle, PostedAt: post.PostedAt, Files: toSend,
		})
		return serr
	})
	if err != nil {
		e.logger.Warn("send media group failed", logging.Account(handle), logging.PostID(post.ID), logging.Error(err))
		failed++
		return uploaded, skipped, failed
	}

	for i, file := range toSend {
		messageID := ""
		if i < len(result.MessageIDs) {
			messageID = result.MessageIDs[i]
		}
		mediaKey := state.MediaKey(post.ID, file.MediaURL)
		if err := e.store.MarkMedia(ctx, state.MediaRecord{
			MediaKey: mediaKey, PostID: post.ID, AccountHandle: handle, MediaURL: file.MediaURL,
			MediaType: file.MediaType, SinkMessageIDs: []string{messageID}, Status: state.MediaUploaded,
		}); err != nil {
			e.logger.Warn("mark uploaded media failed", logging.Account(handle), logging.Error(err))
		}
	}
	uploaded += len(toSend)
	return uploaded, skipped, failed
}

func (e *Engine) sendRunReport(ctx context.Context, summaries []AccountSummary) {
	var totalUploaded, totalSkipped, totalFailed int
	for _, s := range summaries {
		totalUploaded += s.Uploaded
		totalSkipped += s.Skipped
		totalFailed += s.Failed
	}
	report := fmt.Sprintf("sync run complete: %d accounts, %d uploaded, %d skipped, %d failed",
		len(summaries), totalUploaded, totalSkipped, totalFailed)
	if err := e.sink.SendText(ctx, report); err != nil {
		e.logger.Warn("send run report failed", logging.Error(err))
	}
}

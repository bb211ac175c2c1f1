package sink

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"

	"archivist/internal/logging"
	"archivist/internal/state"
)

// TelegramConfig carries the MTProto credentials needed to open a user
// session against the sink platform.
type TelegramConfig struct {
	APIID         int
	APIHash       string
	StringSession string
	ReportPeer    string
}

// Telegram is a Sink backed by a long-lived MTProto user session.
type Telegram struct {
	client *telegram.Client
	cfg    TelegramConfig
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	stop    context.CancelFunc
	done    chan error
}

// NewTelegram builds a Telegram sink from the given credentials. The
// session is not established until the first call that needs it.
func NewTelegram(cfg TelegramConfig, logger *slog.Logger) (*Telegram, error) {
	if logger == nil {
		logger = slog.Default()
	}
	storage, err := newStringSessionStorage(cfg.StringSession)
	if err != nil {
		return nil, fmt.Errorf("decode sink string session: %w", err)
	}
	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: storage,
	})
	return &Telegram{client: client, cfg: cfg, logger: logger}, nil
}

// ensureRunning starts the background connection loop exactly once and
// blocks the caller until the client's connection has been established.
func (t *Telegram) ensureRunning(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan error, 1)
	done := make(chan error, 1)

	go func() {
		done <- t.client.Run(runCtx, func(ctx context.Context) error {
			ready <- nil
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			return err
		}
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}

	t.running = true
	t.stop = cancel
	t.done = done
	return nil
}

func (t *Telegram) SendMediaGroup(ctx context.Context, req MediaGroupRequest) (MediaGroupResult, error) {
	if err := t.ensureRunning(ctx); err != nil {
		return MediaGroupResult{}, fmt.Errorf("connect sink session: %w", err)
	}

	sender := message.NewSender(t.client.API())
	up := uploader.NewUploader(t.client.API())
	target := sender.Resolve(t.cfg.ReportPeer)

	var result MediaGroupResult
	for partIndex, group := range groupFiles(req.Files) {
		groupCaption := caption(req.Handle, req.PostedAt, req.PostURL, partIndex)
		options := make([]message.MultiMediaOption, 0, len(group))
		for i, file := range group {
			uploaded, err := up.FromPath(ctx, file.Path)
			if err != nil {
				return result, fmt.Errorf("upload %s: %w", file.Path, err)
			}
			var captionOpt []styling.StyledTextOption
			if i == 0 {
				captionOpt = []styling.StyledTextOption{styling.Plain(groupCaption)}
			}
			if file.MediaType == state.MediaVideo || file.MediaType == state.MediaGIF {
				options = append(options, message.UploadedDocument(uploaded, captionOpt...).Video())
			} else {
				options = append(options, message.UploadedPhoto(uploaded, captionOpt...))
			}
		}

		updates, err := target.Album(ctx, options[0], options[1:]...)
		if err != nil {
			return result, fmt.Errorf("send media group (part %d): %w", partIndex+1, err)
		}
		t.logger.Debug("sink media group sent",
			logging.String("caption", groupCaption), logging.Int("files", len(group)))
		result.MessageIDs = append(result.MessageIDs, messageIDsFromUpdates(updates)...)
	}
	return result, nil
}

func (t *Telegram) SendText(ctx context.Context, text string) error {
	if err := t.ensureRunning(ctx); err != nil {
		return fmt.Errorf("connect sink session: %w", err)
	}
	sender := message.NewSender(t.client.API())
	_, err := sender.Resolve(t.cfg.ReportPeer).Text(ctx, text)
	if err != nil {
		return fmt.Errorf("send text report: %w", err)
	}
	return nil
}

func (t *Telegram) HealthCheck(ctx context.Context) error {
	if err := t.ensureRunning(ctx); err != nil {
		return fmt.Errorf("sink health check: %w", err)
	}
	status, err := t.client.API().UpdatesGetState(ctx)
	if err != nil {
		return fmt.Errorf("sink health check: %w", err)
	}
	_ = status
	return nil
}

func (t *Telegram) Disconnect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return nil
	}
	t.stop()
	err := <-t.done
	t.running = false
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// messageIDsFromUpdates extracts stringified message ids from an Album
// send's resulting updates, tolerating the handful of update shapes the
// API can return for a multi-message send.
func messageIDsFromUpdates(updates tg.UpdatesClass) []string {
	var ids []string
	switch u := updates.(type) {
	case *tg.Updates:
		for _, upd := range u.Updates {
			if id, ok := newMessageID(upd); ok {
				ids = append(ids, strconv.Itoa(id))
			}
		}
	case *tg.UpdatesCombined:
		for _, upd := range u.Updates {
			if id, ok := newMessageID(upd); ok {
				ids = append(ids, strconv.Itoa(id))
			}
		}
	}
	return ids
}

func newMessageID(upd tg.UpdateClass) (int, bool) {
	switch u := upd.(type) {
	case *tg.UpdateNewMessage:
		if m, ok := u.Message.(*tg.Message); ok {
			return m.ID, true
		}
	case *tg.UpdateNewChannelMessage:
		if m, ok := u.Message.(*tg.Message); ok {
			return m.ID, true
		}
	}
	return 0, false
}

// stringSessionStorage adapts a base64-encoded session blob (as produced by
// an out-of-band MTProto login tool; auth:telegram only prints instructions
// and does not produce one) to gotd's session.Storage
// interface, keeping the refreshed session in memory for the process
// lifetime rather than persisting it back to the environment.
type stringSessionStorage struct {
	mu   sync.Mutex
	data []byte
}

func newStringSessionStorage(encoded string) (*stringSessionStorage, error) {
	if encoded == "" {
		return nil, fmt.Errorf("empty string session")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return &stringSessionStorage{data: data}, nil
}

func (s *stringSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, nil
}

func (s *stringSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

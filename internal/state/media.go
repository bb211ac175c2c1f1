package state

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// MediaType enumerates the kinds of media the source adapter can surface.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
	MediaGIF   MediaType = "gif"
)

// MediaStatus enumerates the terminal states a media record can be inserted with.
type MediaStatus string

const (
	MediaUploaded       MediaStatus = "uploaded"
	MediaSkippedOversize MediaStatus = "skipped_oversize"
)

// MediaRecord is the dedupe-registry row inserted exactly once per
// (post_id, media_url) pair.
type MediaRecord struct {
	MediaKey       string
	PostID         string
	AccountHandle  string
	MediaURL       string
	MediaType      MediaType
	UploadedAt     time.Time
	SinkMessageIDs []string
	Status         MediaStatus
}

// MediaKey computes the content-addressed dedupe key for a (postID, mediaURL) pair.
func MediaKey(postID, mediaURL string) string {
	sum := sha256.Sum256([]byte(postID + "::" + mediaURL))
	return hex.EncodeToString(sum[:])
}

// IsMediaUploaded reports whether mediaKey is already present in the registry.
func (s *Store) IsMediaUploaded(ctx context.Context, mediaKey string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM media_record WHERE media_key = ?", mediaKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check media record %q: %w", mediaKey, err)
	}
	return exists > 0, nil
}

// MarkMedia inserts a media record, replacing any existing row with the same key.
func (s *Store) MarkMedia(ctx context.Context, record MediaRecord) error {
	if record.UploadedAt.IsZero() {
		record.UploadedAt = time.Now().UTC()
	}
	ids := record.SinkMessageIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode sink message ids: %w", err)
	}

	_, err = s.execWithRetry(ensureContext(ctx), `
		INSERT INTO media_record (media_key, post_id, account_handle, media_url, media_type, uploaded_at, sink_message_ids, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_key) DO UPDATE SET
			post_id          = excluded.post_id,
			account_handle   = excluded.account_handle,
			media_url        = excluded.media_url,
			media_type       = excluded.media_type,
			uploaded_at      = excluded.uploaded_at,
			sink_message_ids = excluded.sink_message_ids,
			status           = excluded.status`,
		record.MediaKey,
		record.PostID,
		record.AccountHandle,
		record.MediaURL,
		string(record.MediaType),
		record.UploadedAt.UTC().Format(time.RFC3339Nano),
		string(idsJSON),
		string(record.Status),
	)
	if err != nil {
		return fmt.Errorf("mark media %q: %w", record.MediaKey, err)
	}
	return nil
}

// GetMedia returns the stored record for mediaKey, if any.
func (s *Store) GetMedia(ctx context.Context, mediaKey string) (*MediaRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `
		SELECT media_key, post_id, account_handle, media_url, media_type, uploaded_at, sink_message_ids, status
		FROM media_record WHERE media_key = ?`, mediaKey)

	var (
		key, postID, handle, url, mediaType, uploadedAt, idsJSON, status sql.NullString
	)
	if err := row.Scan(&key, &postID, &handle, &url, &mediaType, &uploadedAt, &idsJSON, &status); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get media record %q: %w", mediaKey, err)
	}

	var ids []string
	_ = json.Unmarshal([]byte(idsJSON.String), &ids)
	uploaded, _ := parseTimeString(uploadedAt.String)

	return &MediaRecord{
		MediaKey:       key.String,
		PostID:         postID.String,
		AccountHandle:  handle.String,
		MediaURL:       url.String,
		MediaType:      MediaType(mediaType.String),
		UploadedAt:     uploaded,
		SinkMessageIDs: ids,
		Status:         MediaStatus(status.String),
	}, nil
}

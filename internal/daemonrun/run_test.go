package daemonrun

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"archivist/internal/config"
)

func baseTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SourceUsers:         []string{"example"},
		SourceCookiesJSON:   `[{"name":"auth_token","value":"a"},{"name":"ct0","value":"b"}]`,
		SinkAPIID:           "12345",
		SinkAPIHash:         "hash",
		SinkStringSession:   "dGVzdC1zZXNzaW9u",
		Timezone:            "UTC",
		StateDBPath:         filepath.Join(t.TempDir(), "state.sqlite"),
		BackfillPagesPerRun: 10,
		MaxMediaPerRun:      300,
		DownloadTmpDir:      t.TempDir(),
		JobLockTTL:          time.Hour,
		MaxUploadVideoBytes: 1024,
		RateLimitCooldown:   time.Hour,
		SyncDailyAt:         "09:00",
		SchedulerTick:       30 * time.Second,
	}
}

func TestBuildSucceedsWithWellFormedConfig(t *testing.T) {
	built, err := Build(context.Background(), baseTestConfig(t), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer built.Close()

	if built.DailyHour != 9 || built.DailyMinute != 0 {
		t.Fatalf("expected daily_at 09:00, got %d:%d", built.DailyHour, built.DailyMinute)
	}
	if built.Engine == nil {
		t.Fatalf("expected a non-nil engine")
	}
}

func TestBuildRejectsMalformedCookies(t *testing.T) {
	cfg := baseTestConfig(t)
	cfg.SourceCookiesJSON = "not json"

	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected an error for malformed cookie JSON")
	}
}

func TestBuildRejectsNonNumericAPIID(t *testing.T) {
	cfg := baseTestConfig(t)
	cfg.SinkAPIID = "not-a-number"

	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected an error for a non-numeric SINK_API_ID")
	}
}

func TestBuildRejectsInvalidTimezone(t *testing.T) {
	cfg := baseTestConfig(t)
	cfg.Timezone = "Not/AZone"

	if _, err := Build(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected an error for an invalid timezone")
	}
}

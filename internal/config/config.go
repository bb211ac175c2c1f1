package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultTimezone               = "Asia/Shanghai"
	defaultStateDBPath            = "/data/state.sqlite"
	defaultBackfillPagesPerRun    = 10
	defaultMaxMediaPerRun         = 300
	defaultDownloadTmpDir         = "/tmp/work"
	defaultJobLockTTLSeconds      = 3300
	defaultMaxUploadVideoBytes    = 512 * 1024 * 1024
	defaultRateLimitCooldownSecs  = 7200
	defaultSyncDailyAt            = "09:00"
	defaultSchedulerTickSeconds   = 30
)

// Config centralizes every environment-variable knob the daemon and CLI need.
type Config struct {
	SourceUsers          []string
	SourceCookiesJSON    string
	SourceWebBearerToken string

	SinkAPIID        string
	SinkAPIHash      string
	SinkStringSession string

	Timezone              string
	StateDBPath           string
	BackfillPagesPerRun   int
	MaxMediaPerRun        int
	DownloadTmpDir        string
	JobLockTTL            time.Duration
	MaxUploadVideoBytes   int64
	RateLimitCooldown     time.Duration

	SyncDailyAt          string
	SchedulerTick        time.Duration
	SchedulerRunOnStart  bool

	LogFormat string
	LogLevel  string
}

// Load reads Config from the process environment, optionally sourcing a
// .env file first (a missing .env is not an error; any other failure to
// load it, such as a malformed file, is returned as an error).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		SourceUsers:          splitAndTrim(getEnv("SOURCE_USERS", "")),
		SourceCookiesJSON:    getEnv("SOURCE_COOKIES_JSON", ""),
		SourceWebBearerToken: getEnv("SOURCE_WEB_BEARER_TOKEN", ""),

		SinkAPIID:         getEnv("SINK_API_ID", ""),
		SinkAPIHash:       getEnv("SINK_API_HASH", ""),
		SinkStringSession: getEnv("SINK_STRING_SESSION", ""),

		Timezone:            getEnv("TZ", defaultTimezone),
		StateDBPath:         getEnv("STATE_DB_PATH", defaultStateDBPath),
		BackfillPagesPerRun: parseIntEnv("BACKFILL_PAGES_PER_RUN", defaultBackfillPagesPerRun),
		MaxMediaPerRun:      parseIntEnv("MAX_MEDIA_PER_RUN", defaultMaxMediaPerRun),
		DownloadTmpDir:      getEnv("DOWNLOAD_TMP_DIR", defaultDownloadTmpDir),
		JobLockTTL:          parseDurationSecondsEnv("JOB_LOCK_TTL_SECONDS", defaultJobLockTTLSeconds*time.Second),
		MaxUploadVideoBytes: parseInt64Env("MAX_UPLOAD_VIDEO_BYTES", defaultMaxUploadVideoBytes),
		RateLimitCooldown:   parseDurationSecondsEnv("SOURCE_RATE_LIMIT_COOLDOWN_SECONDS", defaultRateLimitCooldownSecs*time.Second),

		SyncDailyAt:         getEnv("SYNC_DAILY_AT", defaultSyncDailyAt),
		SchedulerTick:       parseDurationSecondsEnv("SCHEDULER_TICK_SECONDS", defaultSchedulerTickSeconds*time.Second),
		SchedulerRunOnStart: parseBoolEnv("SCHEDULER_RUN_ON_START", false),

		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

// Validate reports every configuration defect in a single error rather than
// failing on the first one found.
func (c *Config) Validate() error {
	var problems []string

	if len(c.SourceUsers) == 0 {
		problems = append(problems, "SOURCE_USERS must name at least one account handle")
	}
	if strings.TrimSpace(c.SourceCookiesJSON) == "" {
		problems = append(problems, "SOURCE_COOKIES_JSON is required")
	}
	if strings.TrimSpace(c.SinkAPIID) == "" {
		problems = append(problems, "SINK_API_ID is required")
	}
	if strings.TrimSpace(c.SinkAPIHash) == "" {
		problems = append(problems, "SINK_API_HASH is required")
	}
	if strings.TrimSpace(c.SinkStringSession) == "" {
		problems = append(problems, "SINK_STRING_SESSION is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("TZ %q is not a valid IANA timezone: %v", c.Timezone, err))
	}
	if _, err := parseHHMM(c.SyncDailyAt); err != nil {
		problems = append(problems, fmt.Sprintf("SYNC_DAILY_AT %q is invalid: %v", c.SyncDailyAt, err))
	}
	if c.BackfillPagesPerRun <= 0 {
		problems = append(problems, "BACKFILL_PAGES_PER_RUN must be positive")
	}
	if c.MaxMediaPerRun <= 0 {
		problems = append(problems, "MAX_MEDIA_PER_RUN must be positive")
	}
	if c.MaxUploadVideoBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_VIDEO_BYTES must be positive")
	}
	if c.SchedulerTick <= 0 {
		problems = append(problems, "SCHEDULER_TICK_SECONDS must be positive")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
}

func splitAndTrim(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimPrefix(p, "@")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseHHMM parses a 24-hour "HH:MM" string into (hour, minute).
func parseHHMM(value string) (hm [2]int, err error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return hm, fmt.Errorf("expected HH:MM")
	}
	var hour, minute int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return hm, fmt.Errorf("invalid hour: %w", err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minute); err != nil {
		return hm, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return hm, fmt.Errorf("hour/minute out of range")
	}
	return [2]int{hour, minute}, nil
}

// DailyAtHourMinute returns SyncDailyAt parsed into (hour, minute). It
// assumes Validate has already confirmed the value is well-formed.
func (c *Config) DailyAtHourMinute() (int, int) {
	hm, _ := parseHHMM(c.SyncDailyAt)
	return hm[0], hm[1]
}

package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOURCE_USERS", "@alice, bob")
	t.Setenv("SOURCE_COOKIES_JSON", `[{"name":"auth_token","value":"x"}]`)
	t.Setenv("SINK_API_ID", "12345")
	t.Setenv("SINK_API_HASH", "hash")
	t.Setenv("SINK_STRING_SESSION", "session")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timezone != defaultTimezone {
		t.Errorf("Timezone = %q, want %q", cfg.Timezone, defaultTimezone)
	}
	if cfg.MaxMediaPerRun != defaultMaxMediaPerRun {
		t.Errorf("MaxMediaPerRun = %d, want %d", cfg.MaxMediaPerRun, defaultMaxMediaPerRun)
	}
	if cfg.JobLockTTL != defaultJobLockTTLSeconds*time.Second {
		t.Errorf("JobLockTTL = %v, want %v", cfg.JobLockTTL, defaultJobLockTTLSeconds*time.Second)
	}
	if got := cfg.SourceUsers; len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("SourceUsers = %v, want [alice bob]", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := &Config{SyncDailyAt: "25:99", Timezone: "Not/AZone"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"SOURCE_USERS", "SOURCE_COOKIES_JSON", "SINK_API_ID", "SINK_API_HASH", "SINK_STRING_SESSION", "TZ", "SYNC_DAILY_AT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %q", want, err.Error())
		}
	}
}

func TestDailyAtHourMinute(t *testing.T) {
	cfg := &Config{SyncDailyAt: "09:30"}
	hour, minute := cfg.DailyAtHourMinute()
	if hour != 9 || minute != 30 {
		t.Errorf("DailyAtHourMinute() = (%d, %d), want (9, 30)", hour, minute)
	}
}

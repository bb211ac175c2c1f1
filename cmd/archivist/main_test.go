package main

import (
	"bytes"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootHelpSucceeds(t *testing.T) {
	_, _, err := runCLI(t, []string{"--help"})
	if err != nil {
		t.Fatalf("--help: %v", err)
	}
}

func TestAuthTelegramPrintsInstructions(t *testing.T) {
	out, _, err := runCLI(t, []string{"auth:telegram"})
	if err != nil {
		t.Fatalf("auth:telegram: %v", err)
	}
	if !strings.Contains(out, "SINK_STRING_SESSION") {
		t.Fatalf("expected auth:telegram output to mention SINK_STRING_SESSION, got %q", out)
	}
}

func TestCookiesCheckRejectsMalformedJSON(t *testing.T) {
	t.Setenv("SOURCE_COOKIES_JSON", "not json")
	t.Setenv("SOURCE_USERS", "example")

	_, _, err := runCLI(t, []string{"cookies:check"})
	if err == nil {
		t.Fatalf("expected cookies:check to fail on malformed cookie JSON")
	}
}

func TestHealthCheckRequiresSourceUsers(t *testing.T) {
	t.Setenv("SOURCE_USERS", "")
	t.Setenv("SOURCE_COOKIES_JSON", `[{"name":"auth_token","value":"a"},{"name":"ct0","value":"b"}]`)
	t.Setenv("SINK_API_ID", "12345")
	t.Setenv("SINK_API_HASH", "hash")
	t.Setenv("SINK_STRING_SESSION", "")

	_, _, err := runCLI(t, []string{"health:check"})
	if err == nil {
		t.Fatalf("expected health:check to fail without SOURCE_USERS")
	}
}

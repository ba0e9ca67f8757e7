package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"duewatch/internal/commands"
	"duewatch/internal/config"
	"duewatch/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

// credentialsDir returns a config dir holding the given files.
func credentialsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func runAuthCommand(ctx context.Context, cmd commands.Command, cfg *config.Config) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(ctx, cfg, nil, nil, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr, code := runAuthCommand(context.Background(), &commands.LoginCmd{}, &config.Config{Dir: dir})

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "error: oauth_client.json not found in "+dir) {
		t.Errorf("expected missing oauth_client.json error, got %q", stderr)
	}
	if !strings.Contains(stderr, "duewatch login") {
		t.Errorf("expected setup instructions to mention duewatch login, got %q", stderr)
	}
}

// A stored token that cannot be refreshed must not count as logged in.
func TestLoginCommand_UnusableTokenStartsFlow(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"corrupt", `{not json`},
		{"no refresh token", `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := credentialsDir(t, map[string]string{
				"oauth_client.json": testOAuthClient,
				"token.json":        tt.token,
			})

			// Cancelled up front so the flow gives up instead of waiting on the callback.
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			stdout, stderr, code := runAuthCommand(ctx, &commands.LoginCmd{}, &config.Config{Dir: dir})

			if stdout == "already logged in\n" {
				t.Error("should not say 'already logged in' with an unusable token")
			}
			if code != exitcode.AuthError {
				t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
			}
			if stderr == "" {
				t.Error("expected an error on stderr")
			}
		})
	}
}

func TestLoginCommand_HTTPSource(t *testing.T) {
	s := config.DefaultSettings()
	s.Source.Kind = config.SourceHTTP
	s.Source.URL = "http://localhost:5000/api/tasks"

	_, stderr, code := runAuthCommand(context.Background(), &commands.LoginCmd{}, &config.Config{
		Dir:      t.TempDir(),
		Settings: s,
	})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: source \"http\" does not use login\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	dir := credentialsDir(t, map[string]string{
		"oauth_client.json": testOAuthClient,
		"token.json":        `{"access_token":"test","refresh_token":"test"}`,
	})

	stdout, stderr, code := runAuthCommand(context.Background(), &commands.LogoutCmd{}, &config.Config{Dir: dir})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "token.json")); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(filepath.Join(dir, "oauth_client.json")); err != nil {
		t.Error("oauth_client.json should be kept")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	tests := []struct {
		quiet bool
		want  string
	}{
		{false, "not logged in\n"},
		{true, ""},
	}
	for _, tt := range tests {
		cfg := &config.Config{Dir: t.TempDir(), Quiet: tt.quiet}
		stdout, stderr, code := runAuthCommand(context.Background(), &commands.LogoutCmd{}, cfg)

		if code != exitcode.Success {
			t.Errorf("quiet=%v: expected exit code %d, got %d", tt.quiet, exitcode.Success, code)
		}
		if stderr != "" {
			t.Errorf("quiet=%v: expected no stderr, got %q", tt.quiet, stderr)
		}
		if stdout != tt.want {
			t.Errorf("quiet=%v: expected %q, got %q", tt.quiet, tt.want, stdout)
		}
	}
}

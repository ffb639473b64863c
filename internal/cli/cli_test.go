package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/blurtapp/blurt/pkg/cache"
	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/observability"
	"github.com/blurtapp/blurt/pkg/session"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"start", "sessions", "templates", "pack", "export", "serve", "cache", "version", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}

// newTestCLI returns a CLI whose config points at a temporary data dir.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range []string{"BLURT_STORAGE_MODE", "BLURT_DATA_DIR", "BLURT_CACHE_BACKEND", "BLURT_MONGO_URI", "BLURT_USER_ID"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := "[storage]\nmode = \"local\"\ndata_dir = \"" + filepath.ToSlash(filepath.Join(dir, "data")) + "\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.configPath = path
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := c.setup(cmd, nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return c
}

func TestSetupLoadsConfigAndLogger(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[board]\ndefault_duration_sec = 600\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.configPath = path
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := c.setup(cmd, nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if got := c.Config().Board.DefaultDurationSec; got != 600 {
		t.Errorf("duration = %d, want 600", got)
	}
	if loggerFromContext(cmd.Context()) != c.Logger {
		t.Error("setup should attach the CLI logger to the context")
	}
}

func TestSetupRejectsInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"memcached\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	c.configPath = path
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := c.setup(cmd, nil); err == nil {
		t.Error("setup should reject an unknown cache backend")
	}
}

func TestSetupRegistersLogHooksInDebug(t *testing.T) {
	observability.Reset()
	t.Cleanup(observability.Reset)
	t.Chdir(t.TempDir())

	var buf bytes.Buffer
	c := New(&buf, LogDebug)
	c.configPath = filepath.Join(t.TempDir(), "missing.toml")
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	if err := c.setup(cmd, nil); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, ok := observability.Board().(logHooks); !ok {
		t.Fatalf("board hooks = %T, want logHooks", observability.Board())
	}
	observability.Board().OnNoteAdded(context.Background(), "s1", 2)
	if !bytes.Contains(buf.Bytes(), []byte("note added")) {
		t.Errorf("debug log missing hook event: %s", buf.String())
	}
}

func TestOpenWorkspaceLocal(t *testing.T) {
	c := newTestCLI(t)
	ctx := withLogger(context.Background(), log.New(io.Discard))

	ws, err := c.openWorkspace(ctx)
	if err != nil {
		t.Fatalf("openWorkspace: %v", err)
	}
	defer ws.Close()

	if ws.repo.Mode() != session.ModeLocal || ws.repo.OfflineReadOnly() {
		t.Errorf("mode = %s, offline = %v", ws.repo.Mode(), ws.repo.OfflineReadOnly())
	}
	if _, err := ws.repo.StartSession(ctx, "first", "", 120); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	again, err := c.openWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	if n := len(again.repo.Sessions()); n != 1 {
		t.Errorf("reopened sessions = %d, want 1", n)
	}
}

func TestOpenWorkspaceCloudWithoutURIUsesLocal(t *testing.T) {
	c := newTestCLI(t)
	c.cfg.Storage.Mode = "cloud"
	c.cfg.Cache.Backend = "none"
	ctx := withLogger(context.Background(), log.New(io.Discard))

	ws, err := c.openWorkspace(ctx)
	if err != nil {
		t.Fatalf("openWorkspace: %v", err)
	}
	defer ws.Close()

	if ws.repo.CloudActive() {
		t.Error("without a mongo URI the repository should stay local")
	}
	if _, err := ws.repo.StartSession(ctx, "offline ok", "", 60); err != nil {
		t.Errorf("StartSession: %v", err)
	}
}

func TestConnectCloud(t *testing.T) {
	permanent := stderrors.New("bad credentials")
	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   bool
	}{
		{"first try", nil, 1, false},
		{"permanent failure", []error{permanent}, 1, true},
		{"retried after network failure", []error{cache.Retryable(cache.ErrNetwork)}, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			store := &session.MongoStore{}
			got, err := connectCloud(context.Background(), func(context.Context) (*session.MongoStore, error) {
				calls++
				if calls <= len(tt.failures) {
					return nil, tt.failures[calls-1]
				}
				return store, nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !tt.wantErr && got != store {
				t.Error("connectCloud should return the connected store")
			}
		})
	}
}

func TestConnectCloudStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := connectCloud(ctx, func(context.Context) (*session.MongoStore, error) {
		return nil, cache.Retryable(cache.ErrNetwork)
	})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestResolveSession(t *testing.T) {
	c := newTestCLI(t)
	ctx := withLogger(context.Background(), log.New(io.Discard))
	ws, err := c.openWorkspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	tmpl, err := ws.repo.SaveTemplate(ctx, session.Template{
		Name: "Retro", TitleDefault: "Sprint retro", PromptDefault: "What went well?", DurationSecDefault: 600,
	})
	if err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	cmd.SetContext(ctx)

	t.Run("flags and config defaults", func(t *testing.T) {
		sess, err := c.resolveSession(cmd, ws.repo, "Ideas", startOptions{prompt: "go", duration: 0})
		if err != nil {
			t.Fatal(err)
		}
		if sess.Title != "Ideas" || sess.Prompt != "go" || sess.DurationSec != 300 {
			t.Errorf("session = %+v", sess)
		}
	})

	t.Run("template by name", func(t *testing.T) {
		sess, err := c.resolveSession(cmd, ws.repo, "", startOptions{template: "retro"})
		if err != nil {
			t.Fatal(err)
		}
		if sess.Title != "Sprint retro" || sess.Prompt != "What went well?" || sess.DurationSec != 600 {
			t.Errorf("session = %+v", sess)
		}
	})

	t.Run("template overridden by flags", func(t *testing.T) {
		sess, err := c.resolveSession(cmd, ws.repo, "Mine", startOptions{template: tmpl.ID, duration: 2 * time.Minute})
		if err != nil {
			t.Fatal(err)
		}
		if sess.Title != "Mine" || sess.DurationSec != 120 {
			t.Errorf("session = %+v", sess)
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := c.resolveSession(cmd, ws.repo, "", startOptions{template: "nope"})
		if !errors.Is(err, errors.ErrCodeTemplateNotFound) {
			t.Errorf("err = %v, want TEMPLATE_NOT_FOUND", err)
		}
	})

	t.Run("resume and latest", func(t *testing.T) {
		started, err := c.resolveSession(cmd, ws.repo, "Resume me", startOptions{})
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.resolveSession(cmd, ws.repo, "", startOptions{resume: started.ID})
		if err != nil || got.ID != started.ID {
			t.Errorf("resume = %v, %v", got, err)
		}
		latest, err := c.resolveSession(cmd, ws.repo, "", startOptions{latest: true})
		if err != nil || latest.ID == "" {
			t.Errorf("latest = %v, %v", latest, err)
		}
	})

	t.Run("blank title gets a default", func(t *testing.T) {
		sess, err := c.resolveSession(cmd, ws.repo, "  ", startOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if sess.Title == "" {
			t.Error("title should default")
		}
	})
}

func TestOrDefault(t *testing.T) {
	if got := orDefault("a", "b"); got != "a" {
		t.Errorf("orDefault(a, b) = %q", got)
	}
	if got := orDefault("  ", "b"); got != "b" {
		t.Errorf("orDefault(blank, b) = %q", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "May 16, 2025"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

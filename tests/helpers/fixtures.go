package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spotsnack/backend/internal/config"
)

// TestUser represents a test user fixture
type TestUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewTestUser returns a user with an email unique to this run
func NewTestUser() TestUser {
	return TestUser{
		Name:     "Test User",
		Email:    fmt.Sprintf("test-%d@example.com", time.Now().UnixNano()),
		Password: "test-password-123",
	}
}

// Interpreter script bodies covering each outcome the bridge can produce
const (
	// EchoScript replies with the envelope it read from stdin.
	EchoScript = `input=$(cat); printf '{"echo":%s}' "$input"`
	// ChatReplyScript ignores its input and answers with a fixed chat reply.
	ChatReplyScript = `cat >/dev/null; echo '{"reply":"Try Café Luna","places":[{"name":"Café Luna"}]}'`
	// VibeReplyScript answers with a fixed vibe.
	VibeReplyScript = `cat >/dev/null; echo '{"vibe":"cozy and quiet"}'`
	// CrashScript exits non-zero without writing stdout.
	CrashScript = `cat >/dev/null; echo 'Traceback: boom' >&2; exit 1`
	// GarbageScript writes non-JSON output and exits cleanly.
	GarbageScript = `cat >/dev/null; echo 'not json'`
)

// WriteInterpreter writes body as a /bin/sh script in a temp dir and returns a
// config that runs it the way the service runs chatBot.py
func WriteInterpreter(t *testing.T, body string) config.InterpreterConfig {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreters are POSIX shell scripts")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "chatBot.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("Failed to write interpreter script: %v", err)
	}

	return config.InterpreterConfig{
		Bin:     "/bin/sh",
		Script:  script,
		WorkDir: dir,
	}
}

// MissingInterpreter returns a config whose executable does not exist
func MissingInterpreter(t *testing.T) config.InterpreterConfig {
	dir := t.TempDir()
	return config.InterpreterConfig{
		Bin:     filepath.Join(dir, "no-such-python"),
		Script:  "chatBot.py",
		WorkDir: dir,
	}
}

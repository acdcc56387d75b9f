package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/wsekete/vpars3/internal/config"
)

// captureStdout runs fn with stdout redirected and returns what it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	original := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()
	w.Close()

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = "1.2.3", "2024-06-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	output := captureStdout(t, printVersion)

	for _, want := range []string{
		"vpars3 PDF Field Rename Server 1.2.3",
		"build time: 2024-06-01_10:30:00",
		"commit:     abc123",
		"go:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("printVersion() output missing %q\nActual output:\n%s", want, output)
		}
	}
}

func TestRenameBehaviorSummary(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want string
	}{
		{
			name: "preserve original",
			cfg:  &config.Config{PreserveOriginal: true, OutputSuffix: "_renamed"},
			want: `copy sources, output suffix "_renamed"`,
		},
		{
			name: "in place with backups",
			cfg:  &config.Config{CreateBackup: true},
			want: "in place with timestamped backups",
		},
		{
			name: "in place without backups",
			cfg:  &config.Config{},
			want: "in place, no backups",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renameBehaviorSummary(tt.cfg)
			if !strings.Contains(got, tt.want) {
				t.Errorf("renameBehaviorSummary() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	originalOutput := log.Writer()
	originalFlags := log.Flags()
	defer func() {
		log.SetOutput(originalOutput)
		log.SetFlags(originalFlags)
	}()

	t.Run("stdio debug logs to stderr", func(t *testing.T) {
		setupLogging(&config.Config{Mode: config.ModeStdio, LogLevel: "debug"})
		if log.Writer() != os.Stderr {
			t.Error("stdio debug mode should log to stderr")
		}
	})

	t.Run("stdio without debug discards logs", func(t *testing.T) {
		setupLogging(&config.Config{Mode: config.ModeStdio, LogLevel: "info"})
		if log.Writer() == os.Stderr {
			t.Error("stdio non-debug mode must not write to stderr")
		}
	})

	t.Run("server mode adds file and line detail", func(t *testing.T) {
		setupLogging(&config.Config{Mode: config.ModeServer, LogLevel: "info"})
		if got, want := log.Flags(), log.LstdFlags|log.Lshortfile; got != want {
			t.Errorf("server mode flags = %v, want %v", got, want)
		}
	})
}

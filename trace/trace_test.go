package trace

import (
	"bytes"
	"strings"
	"testing"
)

func withEnv(t *testing.T, value string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetGetenv(func(key string) string {
		if key == EnvVerbosity {
			return value
		}
		return ""
	})
	t.Cleanup(func() {
		SetOutput(nil)
		SetGetenv(nil)
	})
	return &buf
}

func TestVerbosityParsing(t *testing.T) {
	cases := []struct {
		value string
		want  int
	}{
		{"", 0},
		{"0", 0},
		{"1", 1},
		{"2", 2},
		{"17", 17},
		{"-3", 0},
		{"bogus", 0},
	}
	for _, tc := range cases {
		withEnv(t, tc.value)
		if got := Verbosity(); got != tc.want {
			t.Errorf("Verbosity(%q) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestLogfGating(t *testing.T) {
	buf := withEnv(t, "0")
	Logf(1, "should not appear")
	if buf.Len() != 0 {
		t.Errorf("silent level produced output: %q", buf.String())
	}

	buf = withEnv(t, "2")
	Logf(1, "allocated %d bytes", 88)
	if !strings.Contains(buf.String(), "allocated 88 bytes") {
		t.Errorf("enabled level dropped output: %q", buf.String())
	}
	Logf(3, "above the level")
	if strings.Contains(buf.String(), "above the level") {
		t.Errorf("level 3 emitted at verbosity 2: %q", buf.String())
	}
}

func TestLogfCallSiteFormat(t *testing.T) {
	buf := withEnv(t, "1")
	Logf(1, "hello")

	line := strings.TrimRight(buf.String(), "\n")
	// file:line:function: message
	parts := strings.SplitN(line, ":", 4)
	if len(parts) != 4 {
		t.Fatalf("line = %q, want file:line:function: message", line)
	}
	if parts[0] != "trace_test.go" {
		t.Errorf("file = %q", parts[0])
	}
	if !strings.Contains(parts[2], "TestLogfCallSiteFormat") {
		t.Errorf("function = %q", parts[2])
	}
	if strings.TrimSpace(parts[3]) != "hello" {
		t.Errorf("message = %q", parts[3])
	}
}

func TestVerbosityReadLive(t *testing.T) {
	buf := withEnv(t, "0")

	level := "0"
	SetGetenv(func(string) string { return level })

	Logf(1, "first")
	if buf.Len() != 0 {
		t.Fatalf("output at level 0: %q", buf.String())
	}

	// Raising the variable mid-run takes effect on the next call.
	level = "1"
	Logf(1, "second")
	if !strings.Contains(buf.String(), "second") {
		t.Errorf("raised level ignored: %q", buf.String())
	}
}

func TestEnabled(t *testing.T) {
	withEnv(t, "1")
	if !Enabled(1) {
		t.Error("Enabled(1) = false at verbosity 1")
	}
	if Enabled(2) {
		t.Error("Enabled(2) = true at verbosity 1")
	}
}

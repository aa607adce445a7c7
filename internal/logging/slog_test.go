package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", false)
	logger.Debug("hidden")
	logger.Info("shown", Operation("test"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, `"operation":"test"`) {
		t.Errorf("expected JSON output with operation, got %s", out)
	}

	buf.Reset()
	NewLogger(&buf, "text", true).Debug("visible")
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Errorf("expected text debug output, got %s", buf.String())
	}
}

func TestOperationAttr(t *testing.T) {
	attr := Operation("test_op")
	if attr.Key != KeyOperation {
		t.Errorf("Operation key = %q, want %q", attr.Key, KeyOperation)
	}
	if attr.Value.String() != "test_op" {
		t.Errorf("Operation value = %q, want %q", attr.Value.String(), "test_op")
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err() = %v", attr)
	}

	empty := Err(nil)
	if empty.Value.Kind() != slog.KindGroup || len(empty.Value.Group()) != 0 {
		t.Errorf("Err(nil) should be an empty group, got %v", empty)
	}
}

func TestAnonymizeEmail(t *testing.T) {
	a := AnonymizeEmail("alice@example.com")
	b := AnonymizeEmail("Alice@Example.com")

	if !strings.HasPrefix(a, "user:") || len(a) != len("user:")+16 {
		t.Errorf("unexpected format %q", a)
	}
	if a != b {
		t.Error("hash should be case-insensitive")
	}
	if strings.Contains(a, "alice") {
		t.Error("hash leaks the address")
	}
	if AnonymizeEmail("") != "" {
		t.Error("empty email should hash to empty string")
	}
}

func TestOwners(t *testing.T) {
	attr := Owners([]string{"a@example.com", "b@example.com"})
	hashes, ok := attr.Value.Any().([]string)
	if !ok || len(hashes) != 2 || hashes[0] == hashes[1] {
		t.Errorf("Owners() = %v", attr.Value)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"user@example.com", "example.com"},
		{"noatsign", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("secret-token"); got != "[token:12 chars]" {
		t.Errorf("SanitizeToken() = %q", got)
	}
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
}

func TestCronAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewCronAdapter(NewLogger(&buf, "text", true))
	adapter.Info("tick", "entry", 1)
	adapter.Error(errors.New("job failed"), "run", "entry", 1)

	out := buf.String()
	if !strings.Contains(out, "msg=tick") || !strings.Contains(out, "component=cron") {
		t.Errorf("missing info record: %s", out)
	}
	if !strings.Contains(out, `error="job failed"`) {
		t.Errorf("missing error record: %s", out)
	}
}

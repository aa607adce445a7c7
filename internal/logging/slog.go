package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyOwner     = "owner_hash"
	KeyDomain    = "owner_domain"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyCount     = "count"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// NewLogger builds the process logger. format is "text" or "json"; debug
// lowers the level to Debug.
func NewLogger(w io.Writer, format string, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Count returns a slog attribute for a result size.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Err returns a slog attribute for an error. A nil error yields an empty
// group, which slog omits.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable, non-reversible identifier for an email.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(email)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// Owner returns a slog attribute with the anonymized calendar owner.
func Owner(email string) slog.Attr {
	return slog.String(KeyOwner, AnonymizeEmail(email))
}

// Owners returns the anonymized identifiers of several owners as one attribute.
func Owners(emails []string) slog.Attr {
	hashed := make([]string, 0, len(emails))
	for _, e := range emails {
		hashed = append(hashed, AnonymizeEmail(e))
	}
	return slog.Any("owner_hashes", hashed)
}

// Domain returns a slog attribute for the owner's email domain.
func Domain(email string) slog.Attr {
	return slog.String(KeyDomain, ExtractDomain(email))
}

// ExtractDomain extracts the domain part from an email address.
func ExtractDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

// SanitizeToken returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

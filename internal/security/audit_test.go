package security

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAuditLogger_WritesJSONL(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	logger := NewAuditLogger(AuditLoggerConfig{
		Writer: &buf,
		Now:    func() time.Time { return fixed },
	})

	logger.Log(AuditEvent{
		Type:    EventGuardRejection,
		Surface: SurfaceCLI,
		Tool:    "vault_command",
		Detail:  "disallowed verb: rm",
	})

	var event AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if event.Type != EventGuardRejection {
		t.Errorf("type = %q", event.Type)
	}
	if !event.Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", event.Timestamp, fixed)
	}
	if event.Detail != "disallowed verb: rm" {
		t.Errorf("detail = %q", event.Detail)
	}
}

func TestAuditLogger_RedactsDetailAndMetadata(t *testing.T) {
	t.Parallel()

	redactor := NewRedactor()
	redactor.AddLiteral("hunter2-session")

	var buf bytes.Buffer
	logger := NewAuditLogger(AuditLoggerConfig{
		Writer:   &buf,
		Redactor: redactor,
	})

	logger.Log(AuditEvent{
		Type:     EventToolCall,
		Detail:   "unlock with hunter2-session",
		Metadata: map[string]string{"session": "hunter2-session"},
	})

	out := buf.String()
	if strings.Contains(out, "hunter2-session") {
		t.Errorf("secret leaked into audit log: %s", out)
	}
}

func TestAuditLogger_DoesNotMutateCallerMetadata(t *testing.T) {
	t.Parallel()

	redactor := NewRedactor()
	redactor.AddLiteral("secret-value")

	logger := NewAuditLogger(AuditLoggerConfig{Redactor: redactor})

	meta := map[string]string{"token": "secret-value"}
	logger.Log(AuditEvent{Type: EventTokenRefresh, Metadata: meta})

	if meta["token"] != "secret-value" {
		t.Errorf("caller metadata mutated: %q", meta["token"])
	}
}

func TestAuditLogger_OnEvent(t *testing.T) {
	t.Parallel()

	var seen []AuditEvent
	logger := NewAuditLogger(AuditLoggerConfig{
		OnEvent: func(e AuditEvent) { seen = append(seen, e) },
	})

	logger.Log(AuditEvent{Type: EventToolCall, Tool: "vault_status"})
	logger.Log(AuditEvent{Type: EventToolResult, Tool: "vault_status"})

	if len(seen) != 2 {
		t.Fatalf("OnEvent called %d times, want 2", len(seen))
	}
	if seen[0].Type != EventToolCall || seen[1].Type != EventToolResult {
		t.Errorf("event order: %v, %v", seen[0].Type, seen[1].Type)
	}
}

func TestAuditLogger_NilReceiverIsNoop(t *testing.T) {
	t.Parallel()

	var logger *AuditLogger
	logger.Log(AuditEvent{Type: EventToolCall}) // must not panic
}

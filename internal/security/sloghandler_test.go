package security

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger(redactor *Redactor) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewRedactingHandler(inner, redactor)), &buf
}

func TestRedactingHandler_Message(t *testing.T) {
	t.Parallel()

	redactor := NewRedactor()
	redactor.AddLiteral("tok-12345678")
	logger, buf := newTestLogger(redactor)

	logger.Info("acquired token tok-12345678")

	if strings.Contains(buf.String(), "tok-12345678") {
		t.Errorf("secret leaked in message: %s", buf.String())
	}
}

func TestRedactingHandler_StringAttr(t *testing.T) {
	t.Parallel()

	redactor := NewRedactor()
	redactor.AddLiteral("cs-secret")
	logger, buf := newTestLogger(redactor)

	logger.Info("api call", "client_secret", "cs-secret")

	if strings.Contains(buf.String(), "cs-secret") {
		t.Errorf("secret leaked in attr: %s", buf.String())
	}
	if !strings.Contains(buf.String(), RedactPlaceholder) {
		t.Errorf("placeholder missing: %s", buf.String())
	}
}

func TestRedactingHandler_ErrorAttr(t *testing.T) {
	t.Parallel()

	redactor := NewRedactor()
	redactor.AddLiteral("leaky-token")
	logger, buf := newTestLogger(redactor)

	logger.Error("request failed", "err", errors.New("401 for bearer leaky-token"))

	if strings.Contains(buf.String(), "leaky-token") {
		t.Errorf("secret leaked via error attr: %s", buf.String())
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	redactor := NewRedactor()
	redactor.AddLiteral("persistent-secret")
	logger, buf := newTestLogger(redactor)

	logger.With("session", "persistent-secret").Info("started")

	if strings.Contains(buf.String(), "persistent-secret") {
		t.Errorf("secret leaked via With attrs: %s", buf.String())
	}
}

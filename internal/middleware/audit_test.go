package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAuditLogsRequestLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logger))
	app.Get("/resource", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/resource", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit log is not valid json: %v", err)
	}
	if entry["method"] != "GET" || entry["path"] != "/resource" {
		t.Fatalf("unexpected audit entry: %v", entry)
	}
	if entry["status"] != float64(fiber.StatusOK) {
		t.Fatalf("expected status 200 in audit entry, got %v", entry["status"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Fatal("audit entry should carry the request id")
	}
}

func TestAuditLogsErrorsAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(Audit(logger))
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "boom")
	})

	if _, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil)); err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("audit log is not valid json: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Fatalf("expected ERROR level for failed request, got %v", entry["level"])
	}
	if entry["error"] == nil {
		t.Fatal("audit entry should carry the handler error")
	}
}

package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// sandbox is the inert backend served to tenants in sandbox mode. It
// implements every capability, logs each call, and reports success
// without touching any external service.
type sandbox struct {
	capability Capability
	log        *slog.Logger
}

func newSandbox(capability Capability, log *slog.Logger) *sandbox {
	if log == nil {
		log = slog.Default()
	}
	return &sandbox{capability: capability, log: log}
}

func (s *sandbox) logCall(ctx context.Context, action string, attrs ...slog.Attr) {
	all := append([]slog.Attr{
		slog.String("capability", string(s.capability)),
		slog.String("backend", "sandbox"),
	}, attrs...)
	s.log.LogAttrs(ctx, slog.LevelInfo, "sandbox provider call: "+action, all...)
}

func (s *sandbox) SendEmail(ctx context.Context, recipient, subject, _ string) error {
	s.logCall(ctx, "send_email", slog.String("recipient", recipient), slog.String("subject", subject))
	return nil
}

func (s *sandbox) SendSMS(ctx context.Context, recipient, _ string) error {
	s.logCall(ctx, "send_sms", slog.String("recipient", recipient))
	return nil
}

func (s *sandbox) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.logCall(ctx, "put_object",
		slog.String("key", key),
		slog.Int("size", len(data)),
		slog.String("content_type", contentType))
	return "sandbox://" + key, nil
}

func (s *sandbox) Delete(ctx context.Context, key string) error {
	s.logCall(ctx, "delete_object", slog.String("key", key))
	return nil
}

func (s *sandbox) IndexDocument(ctx context.Context, id string, _ map[string]any) error {
	s.logCall(ctx, "index_document", slog.String("doc_id", id))
	return nil
}

func (s *sandbox) Search(ctx context.Context, query string, _ int) ([]SearchHit, error) {
	s.logCall(ctx, "search", slog.String("query", query))
	return []SearchHit{}, nil
}

func (s *sandbox) AuthCodeURL(state string) string {
	return "https://sandbox.invalid/authorize?state=" + state
}

func (s *sandbox) Exchange(ctx context.Context, code string) (*Identity, error) {
	s.logCall(ctx, "exchange")
	return &Identity{
		Subject: "sandbox:" + code,
		Email:   "sandbox@example.com",
		Name:    "Sandbox User",
	}, nil
}

func (s *sandbox) Complete(ctx context.Context, prompt string) (string, error) {
	s.logCall(ctx, "complete", slog.Int("prompt_len", len(prompt)))
	return fmt.Sprintf("sandbox completion for %d-character prompt", len(prompt)), nil
}

func (s *sandbox) Get(ctx context.Context, key string) (string, error) {
	s.logCall(ctx, "get", slog.String("key", key))
	return "", nil
}

func (s *sandbox) Set(ctx context.Context, key, _ string, ttl time.Duration) error {
	s.logCall(ctx, "set", slog.String("key", key), slog.Duration("ttl", ttl))
	return nil
}

func (s *sandbox) Enqueue(ctx context.Context, task string, _ any) (string, error) {
	id := uuid.NewString()
	s.logCall(ctx, "enqueue", slog.String("task", task), slog.String("task_id", id))
	return id, nil
}

func (s *sandbox) RecordChange(ctx context.Context, action, object, objectID string, _ map[string]any) error {
	s.logCall(ctx, "record_change",
		slog.String("action", action),
		slog.String("object", object),
		slog.String("object_id", objectID))
	return nil
}

func (s *sandbox) Enabled(ctx context.Context, flag string) (bool, error) {
	s.logCall(ctx, "flag_enabled", slog.String("flag", flag))
	return false, nil
}

package provider

import (
	"context"
	"fmt"
	"log/slog"
)

// DevIntelligence answers prompts with a canned completion. Stands in
// for a real AI backend in development; production deployments
// register their own factory.
type DevIntelligence struct {
	log *slog.Logger
}

// NewDevIntelligence builds the canned-answer AI backend.
func NewDevIntelligence(log *slog.Logger) *DevIntelligence {
	if log == nil {
		log = slog.Default()
	}
	return &DevIntelligence{log: log}
}

func (d *DevIntelligence) Complete(ctx context.Context, prompt string) (string, error) {
	d.log.InfoContext(ctx, "dev completion", slog.Int("prompt_len", len(prompt)))
	return fmt.Sprintf("dev completion for %d-character prompt", len(prompt)), nil
}

// LogAudit records change events to the structured log. Deployments
// needing durable audit trails register a database-backed factory.
type LogAudit struct {
	log *slog.Logger
}

// NewLogAudit builds the log-only audit sink.
func NewLogAudit(log *slog.Logger) *LogAudit {
	if log == nil {
		log = slog.Default()
	}
	return &LogAudit{log: log}
}

func (a *LogAudit) RecordChange(ctx context.Context, action, object, objectID string, changes map[string]any) error {
	a.log.InfoContext(ctx, "audit change",
		slog.String("action", action),
		slog.String("object", object),
		slog.String("object_id", objectID),
		slog.Int("changed_fields", len(changes)))
	return nil
}

// StaticFlags evaluates feature flags from the backend settings. The
// "flags" setting maps flag names to booleans; unknown flags are off.
type StaticFlags struct {
	flags map[string]bool
}

// NewStaticFlags builds a flag source from its settings.
func NewStaticFlags(s Settings) *StaticFlags {
	flags := map[string]bool{}
	if raw, ok := s["flags"].(map[string]any); ok {
		for name, v := range raw {
			if enabled, ok := v.(bool); ok {
				flags[name] = enabled
			}
		}
	}
	return &StaticFlags{flags: flags}
}

func (f *StaticFlags) Enabled(_ context.Context, flag string) (bool, error) {
	return f.flags[flag], nil
}

// RegisterDevBackends installs the built-in development factories for
// intelligence, audit, and flags.
func RegisterDevBackends(r *Registry, log *slog.Logger) {
	r.Register(CapabilityIntelligence, "dev", func(Settings) (any, error) {
		return NewDevIntelligence(log), nil
	})
	r.Register(CapabilityAudit, "log", func(Settings) (any, error) {
		return NewLogAudit(log), nil
	})
	r.Register(CapabilityFlags, "static", func(s Settings) (any, error) {
		return NewStaticFlags(s), nil
	})
}

package provider

import (
	"context"
	"time"
)

// The resilient wrappers route every capability call through the
// runtime so breaker state, telemetry, and deadlines apply uniformly
// no matter which backend serves the tenant.

type resilientEmail struct {
	name string
	rt   *Runtime
	next EmailSender
}

// ResilientEmail wraps an email backend with the runtime.
func ResilientEmail(name string, rt *Runtime, next EmailSender) EmailSender {
	return &resilientEmail{name: name, rt: rt, next: next}
}

func (p *resilientEmail) SendEmail(ctx context.Context, recipient, subject, body string) error {
	_, err := Call(ctx, p.rt, p.name, "send_email", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.SendEmail(ctx, recipient, subject, body)
	})
	return err
}

type resilientSMS struct {
	name string
	rt   *Runtime
	next SMSSender
}

// ResilientSMS wraps an SMS backend with the runtime.
func ResilientSMS(name string, rt *Runtime, next SMSSender) SMSSender {
	return &resilientSMS{name: name, rt: rt, next: next}
}

func (p *resilientSMS) SendSMS(ctx context.Context, recipient, message string) error {
	_, err := Call(ctx, p.rt, p.name, "send_sms", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.SendSMS(ctx, recipient, message)
	})
	return err
}

type resilientStorage struct {
	name string
	rt   *Runtime
	next BlobStorage
}

// ResilientStorage wraps a blob storage backend with the runtime.
func ResilientStorage(name string, rt *Runtime, next BlobStorage) BlobStorage {
	return &resilientStorage{name: name, rt: rt, next: next}
}

func (p *resilientStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return Call(ctx, p.rt, p.name, "put_object", func(ctx context.Context) (string, error) {
		return p.next.Put(ctx, key, data, contentType)
	})
}

func (p *resilientStorage) Delete(ctx context.Context, key string) error {
	_, err := Call(ctx, p.rt, p.name, "delete_object", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.Delete(ctx, key)
	})
	return err
}

type resilientSearch struct {
	name string
	rt   *Runtime
	next SearchIndex
}

// ResilientSearch wraps a search backend with the runtime. Queries
// degrade to empty results when the backend is failing or the circuit
// is open; indexing errors are surfaced to the caller.
func ResilientSearch(name string, rt *Runtime, next SearchIndex) SearchIndex {
	return &resilientSearch{name: name, rt: rt, next: next}
}

func (p *resilientSearch) IndexDocument(ctx context.Context, id string, doc map[string]any) error {
	_, err := Call(ctx, p.rt, p.name, "index_document", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.IndexDocument(ctx, id, doc)
	})
	return err
}

func (p *resilientSearch) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	hits := CallDegraded(ctx, p.rt, p.name, "search", []SearchHit{}, func(ctx context.Context) ([]SearchHit, error) {
		return p.next.Search(ctx, query, limit)
	})
	return hits, nil
}

type resilientIntelligence struct {
	name string
	rt   *Runtime
	next Intelligence
}

// ResilientIntelligence wraps an AI backend with the runtime.
func ResilientIntelligence(name string, rt *Runtime, next Intelligence) Intelligence {
	return &resilientIntelligence{name: name, rt: rt, next: next}
}

func (p *resilientIntelligence) Complete(ctx context.Context, prompt string) (string, error) {
	return Call(ctx, p.rt, p.name, "complete", func(ctx context.Context) (string, error) {
		return p.next.Complete(ctx, prompt)
	})
}

type resilientKV struct {
	name string
	rt   *Runtime
	next KV
}

// ResilientKV wraps a cache backend with the runtime. Reads degrade to
// a cache miss; writes and deletes surface their errors.
func ResilientKV(name string, rt *Runtime, next KV) KV {
	return &resilientKV{name: name, rt: rt, next: next}
}

func (p *resilientKV) Get(ctx context.Context, key string) (string, error) {
	value := CallDegraded(ctx, p.rt, p.name, "get", "", func(ctx context.Context) (string, error) {
		return p.next.Get(ctx, key)
	})
	return value, nil
}

func (p *resilientKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := Call(ctx, p.rt, p.name, "set", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.Set(ctx, key, value, ttl)
	})
	return err
}

func (p *resilientKV) Delete(ctx context.Context, key string) error {
	_, err := Call(ctx, p.rt, p.name, "delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.Delete(ctx, key)
	})
	return err
}

type resilientQueue struct {
	name string
	rt   *Runtime
	next Queue
}

// ResilientQueue wraps a task queue backend with the runtime.
func ResilientQueue(name string, rt *Runtime, next Queue) Queue {
	return &resilientQueue{name: name, rt: rt, next: next}
}

func (p *resilientQueue) Enqueue(ctx context.Context, task string, payload any) (string, error) {
	return Call(ctx, p.rt, p.name, "enqueue", func(ctx context.Context) (string, error) {
		return p.next.Enqueue(ctx, task, payload)
	})
}

type resilientAudit struct {
	name string
	rt   *Runtime
	next AuditSink
}

// ResilientAudit wraps an audit backend with the runtime.
func ResilientAudit(name string, rt *Runtime, next AuditSink) AuditSink {
	return &resilientAudit{name: name, rt: rt, next: next}
}

func (p *resilientAudit) RecordChange(ctx context.Context, action, object, objectID string, changes map[string]any) error {
	_, err := Call(ctx, p.rt, p.name, "record_change", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.next.RecordChange(ctx, action, object, objectID, changes)
	})
	return err
}

type resilientFlags struct {
	name string
	rt   *Runtime
	next FlagSource
}

// ResilientFlags wraps a feature flag backend with the runtime. Flag
// evaluation degrades to disabled when the backend is unavailable.
func ResilientFlags(name string, rt *Runtime, next FlagSource) FlagSource {
	return &resilientFlags{name: name, rt: rt, next: next}
}

func (p *resilientFlags) Enabled(ctx context.Context, flag string) (bool, error) {
	enabled := CallDegraded(ctx, p.rt, p.name, "flag_enabled", false, func(ctx context.Context) (bool, error) {
		return p.next.Enabled(ctx, flag)
	})
	return enabled, nil
}

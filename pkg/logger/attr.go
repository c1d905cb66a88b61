package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// Nil errors produce an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID records the tenant identifier under the key "tenant_id".
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// TenantSlug records the tenant slug under the key "tenant".
func TenantSlug(slug string) slog.Attr {
	if slug == "" {
		return slog.Attr{}
	}
	return slog.String("tenant", slug)
}

// UserID records the user identifier under the key "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// Provider records an infrastructure provider name under the key
// "provider".
func Provider(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("provider", name)
}

// Resource records a quota resource name under the key "resource".
func Resource(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("resource", name)
}

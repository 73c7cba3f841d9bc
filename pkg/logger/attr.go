package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// MessageID records the message identifier under the key "message_id".
func MessageID(id string) slog.Attr {
	return slog.String("message_id", id)
}

// TenantID records the tenant identifier under the key "tenant_id".
func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

// Service records the notification service name under the key "service".
func Service(name string) slog.Attr {
	return slog.String("service", name)
}

// Attempts records the delivery attempt counter under the key "attempts".
func Attempts(n int) slog.Attr {
	return slog.Int("attempts", n)
}

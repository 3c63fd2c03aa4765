package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func TenantID(id uuid.UUID) slog.Attr {
	return slog.String("tenant_id", id.String())
}

func PrincipalID(id string) slog.Attr {
	return slog.String("principal_id", id)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

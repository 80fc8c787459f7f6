package server

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditLogEntry describes one handled request.
type AuditLogEntry struct {
	Timestamp    time.Time
	Route        string
	Method       string
	Path         string
	StatusCode   int
	Duration     time.Duration
	UserID       int64
	Role         string
	OrderNumber  string
	ReturnNumber string
	Request      string
	Response     string
}

func (e AuditLogEntry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddTime("timestamp", e.Timestamp)
	enc.AddString("route", e.Route)
	enc.AddString("method", e.Method)
	enc.AddString("path", e.Path)
	enc.AddInt("status_code", e.StatusCode)
	enc.AddDuration("duration", e.Duration)
	if e.UserID != 0 {
		enc.AddInt64("user_id", e.UserID)
		enc.AddString("role", e.Role)
	}
	if e.OrderNumber != "" {
		enc.AddString("order_number", e.OrderNumber)
	}
	if e.ReturnNumber != "" {
		enc.AddString("return_number", e.ReturnNumber)
	}
	if e.Request != "" {
		enc.AddString("request", e.Request)
	}
	if e.Response != "" {
		enc.AddString("response", e.Response)
	}
	return nil
}

var _ zapcore.ObjectMarshaler = AuditLogEntry{}

func auditField(e AuditLogEntry) zap.Field {
	return zap.Object("audit", e)
}

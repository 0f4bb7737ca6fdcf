package store

import (
	"context"

	"go.uber.org/zap"
)

type userKey struct{}

// WithUserID returns a context carrying the id of the acting user, reported
// in the audit log of the writes done with that context.
func WithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, userKey{}, id)
}

// UserIDFrom returns the acting user of ctx, or zero.
func UserIDFrom(ctx context.Context) uint {
	id, _ := ctx.Value(userKey{}).(uint)
	return id
}

// audit logs a database write.
func (s *Store) audit(ctx context.Context, operation, table string, key any, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Any("key", key),
		zap.Uint("user_id", UserIDFrom(ctx)),
	}, fields...)
	s.log.Info("database write", fields...)
}

// LogAuth logs an authentication attempt.
func (s *Store) LogAuth(username string, success bool, reason string) {
	fields := []zap.Field{zap.String("username", username), zap.Bool("success", success)}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	if success {
		s.log.Info("authentication", fields...)
		return
	}
	s.log.Warn("authentication", fields...)
}

// LogAction logs a user action that is not a database write.
func (s *Store) LogAction(ctx context.Context, action string, details ...zap.Field) {
	s.log.Info(action, append([]zap.Field{zap.Uint("user_id", UserIDFrom(ctx))}, details...)...)
}

func zapISIN(isin string) zap.Field { return zap.String("isin", isin) }

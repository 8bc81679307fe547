package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

// SessionIDFieldは、logrusロガーでセッションIDを出力する際のフィールド名です。
const SessionIDField = "track_session_id"

type logrusLogger struct {
	l logrus.FieldLogger
}

func (l *logrusLogger) entry(ctx context.Context) logrus.FieldLogger {
	if sID := TrackSessionID(ctx); sID != "" {
		return l.l.WithField(SessionIDField, sID)
	}
	return l.l
}

func (l *logrusLogger) Infof(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Infof(format, args...)
}

func (l *logrusLogger) Warnf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Warnf(format, args...)
}

func (l *logrusLogger) Errorf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Errorf(format, args...)
}

func (l *logrusLogger) Debugf(ctx context.Context, format string, args ...any) {
	l.entry(ctx).Debugf(format, args...)
}

// NewLogrusは、logrusを使用する構造化ロガーを返却します。
//
// コンテキストにセッションIDがセットされている場合は SessionIDField として出力します。
func NewLogrus(l logrus.FieldLogger) Logger {
	return &logrusLogger{l: l}
}

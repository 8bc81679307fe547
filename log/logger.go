package log

import (
	"context"

	"github.com/google/uuid"
)

// Loggerは、wsproto-go内で使用するロガーインターフェースです。
type Logger interface {
	Infof(context.Context, string, ...interface{})
	Warnf(context.Context, string, ...interface{})
	Errorf(context.Context, string, ...interface{})
	Debugf(context.Context, string, ...interface{})
}

var trackSessionIDKey = "trackSessionIDKey"

// WithTrackSessionIDは、新たにセッションIDを採番しコンテキストにセットします。
//
// セッションIDはセッションが開始されたタイミングでセットします。
// ここで設定されたセッションIDは常にログ出力します。
func WithTrackSessionID(ctx context.Context) context.Context {
	return context.WithValue(ctx, &trackSessionIDKey, genTrackID())
}

// TrackSessionIDは、コンテキストにセットされたセッションIDを取得します。
func TrackSessionID(ctx context.Context) string {
	v, ok := ctx.Value(&trackSessionIDKey).(string)
	if !ok {
		return ""
	}
	return v
}

func genTrackID() string {
	return uuid.NewString()
}

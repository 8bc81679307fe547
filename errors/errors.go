package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrWebSocketはwsprotoライブラリで定義されている基底エラーです。
	ErrWebSocket = errors.New("websocket")
	// ErrConnectionClosedは、セッションが閉じられている状態で読み書きをした場合のエラーです。
	ErrConnectionClosed = fmt.Errorf("closed websocket connection: %w", ErrWebSocket)
	// ErrProtocolViolationは、受信したバイト列がWebSocketのフレーミング規則に違反している場合のエラーです。
	ErrProtocolViolation = fmt.Errorf("protocol violation: %w", ErrWebSocket)
	// ErrUnsupportedOpcodeは、未定義のオペコードを受信した場合のエラーです。
	ErrUnsupportedOpcode = fmt.Errorf("unsupported opcode: %w", ErrProtocolViolation)
	// ErrUnexpectedContinuationは、先行するデータフレームがないContinuationフレームを受信した場合のエラーです。
	ErrUnexpectedContinuation = fmt.Errorf("continuation frame without preceding data frame: %w", ErrProtocolViolation)
	// ErrInvalidByteOrderは、パーサーに渡されたバッファのバイトオーダーがビッグエンディアンでない場合のエラーです。
	ErrInvalidByteOrder = fmt.Errorf("buffer byte order must be big endian: %w", ErrProtocolViolation)
	// ErrInvalidControlFrameは、分割された、または125バイトを超える制御フレームのエラーです。
	ErrInvalidControlFrame = fmt.Errorf("invalid control frame: %w", ErrProtocolViolation)
	// ErrReservedBitsは、どの拡張も使用していないRSVビットが立っている場合のエラーです。
	ErrReservedBits = fmt.Errorf("unnegotiated reserved bits: %w", ErrProtocolViolation)
	// ErrFrameTooLargeは、フレームのペイロードが最大フレームサイズを超えた場合のエラーです。
	ErrFrameTooLarge = fmt.Errorf("frame is too large: %w", ErrWebSocket)
	// ErrPingTimeoutは、Pingに対するPongがタイムアウト時間内に受信できなかった場合のエラーです。
	ErrPingTimeout = fmt.Errorf("ping timeout: %w", ErrWebSocket)
	// ErrIllegalStateは、内部状態と矛盾した操作が行われた場合のエラーです。
	ErrIllegalState = fmt.Errorf("illegal state: %w", ErrWebSocket)
	// ErrExtensionConflictは、複数の拡張が同じRSVビットを要求した場合のエラーです。
	ErrExtensionConflict = fmt.Errorf("conflicting extensions: %w", ErrWebSocket)
	// ErrExtensionFailedは、拡張がフレームの変換に失敗した場合のエラーです。
	ErrExtensionFailed = fmt.Errorf("extension failed: %w", ErrWebSocket)
	// ErrAlreadyStartedは、開始済みのセッションを再度開始しようとした場合のエラーです。
	ErrAlreadyStarted = fmt.Errorf("session already started: %w", ErrWebSocket)
)

// CloseErrorは、ピアからCloseフレームを受信してセッションが終了した場合のエラーです。
type CloseError struct {
	Code    uint16 // クローズコード
	Message string // クローズメッセージ
}

func (e CloseError) Error() string {
	return fmt.Sprintf("close_code: %v close_message: %v", e.Code, e.Message)
}

func (e CloseError) Is(err error) bool {
	return err == ErrConnectionClosed || err == ErrWebSocket
}

// ExtensionErrorは、拡張がフレームの変換に失敗した場合のエラーです。
type ExtensionError struct {
	Extension string // 拡張の名前
	Outgoing  bool   // 送信側の変換かどうか
	Err       error  // 拡張が返却したエラー
}

func (e *ExtensionError) Error() string {
	dir := "incoming"
	if e.Outgoing {
		dir = "outgoing"
	}
	return fmt.Sprintf("extension %q %s: %v", e.Extension, dir, e.Err)
}

func (e *ExtensionError) Unwrap() error {
	return e.Err
}

func (e *ExtensionError) Is(err error) bool {
	return err == ErrExtensionFailed || err == ErrWebSocket
}

func AsCloseError(err error) (*CloseError, bool) {
	var res CloseError
	ok := As(err, &res)
	return &res, ok
}

func New(text string) error {
	return errors.New(text)
}

func Errorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

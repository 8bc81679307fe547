package websocket

import (
	"math"
	"time"

	"github.com/aptpod/wsproto-go/frame"
	"github.com/aptpod/wsproto-go/log"
)

var defaultConfig = Config{
	Client:            false,
	MaxFrameSize:      math.MaxInt32,
	OutgoingQueueSize: 8,
	ReadBufferSize:    frame.DefaultReadBufferSize,
	PingInterval:      -1,
	Timeout:           15 * time.Second,
	StrictPong:        false,
	PassControlFrames: false,
	CloseTimeout:      time.Second,
	Logger:            log.NewNop(),
	MaskKeySource:     nil,
}

// Config は、セッションの設定です。
type Config struct {
	// Client は、クライアント側のセッションかどうかです。
	//
	// true の場合、送信するフレームはすべてマスクされます。
	Client bool

	// MaxFrameSize は、送受信できるフレームのペイロードの最大バイト数です。
	//
	// 負の値の場合は無制限です。
	MaxFrameSize int64

	// OutgoingQueueSize は、送信キューの長さです。
	//
	// キューが一杯の場合、 Send はブロックします。
	OutgoingQueueSize int

	// ReadBufferSize は、トランスポートから1回に読み込む最大バイト数です。
	ReadBufferSize int

	// PingInterval は、Pingを送信する間隔です。
	//
	// 負の値の場合、Pingは送信しません。
	PingInterval time.Duration

	// Timeout は、Ping送信後にPongを待つ時間と、Close送信後にピアのCloseを待つ時間です。
	Timeout time.Duration

	// StrictPong が true の場合、送信したPingと同じペイロードのPongのみ受け付けます。
	StrictPong bool

	// PassControlFrames が true の場合、Ping、Pong、Closeフレームも Incoming に配送します。
	PassControlFrames bool

	// CloseTimeout は、異常終了時にCloseフレームの送信を試みる時間です。
	CloseTimeout time.Duration

	// Logger は、ロガーです。
	Logger log.Logger

	// MaskKeySource は、マスクキーの生成関数です。 nil の場合は crypto/rand を使用します。
	MaskKeySource func() uint32
}

// DefaultConfig は、デフォルトの Config を返却します。
func DefaultConfig() *Config {
	c := defaultConfig
	return &c
}

func newConfig(opts ...Option) Config {
	c := defaultConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.OutgoingQueueSize < 0 {
		c.OutgoingQueueSize = defaultConfig.OutgoingQueueSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = defaultConfig.ReadBufferSize
	}
	if c.Timeout < 0 {
		c.Timeout = defaultConfig.Timeout
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = defaultConfig.CloseTimeout
	}
	if c.Logger == nil {
		c.Logger = log.NewNop()
	}
	return c
}

// Option は、セッションのオプションです。
type Option func(*Config)

// WithConfig は、 Config をまとめて設定します。
func WithConfig(c Config) Option {
	return func(o *Config) {
		*o = c
	}
}

// WithClient は、クライアント側のセッションとして設定します。
func WithClient(client bool) Option {
	return func(o *Config) {
		o.Client = client
	}
}

// WithMaxFrameSize は、フレームの最大バイト数を設定します。
func WithMaxFrameSize(n int64) Option {
	return func(o *Config) {
		o.MaxFrameSize = n
	}
}

// WithOutgoingQueueSize は、送信キューの長さを設定します。
func WithOutgoingQueueSize(n int) Option {
	return func(o *Config) {
		o.OutgoingQueueSize = n
	}
}

// WithReadBufferSize は、読み込みバッファのサイズを設定します。
func WithReadBufferSize(n int) Option {
	return func(o *Config) {
		o.ReadBufferSize = n
	}
}

// WithPingInterval は、Pingを送信する間隔を設定します。
func WithPingInterval(d time.Duration) Option {
	return func(o *Config) {
		o.PingInterval = d
	}
}

// WithTimeout は、Pong及びCloseの待ち時間を設定します。
func WithTimeout(d time.Duration) Option {
	return func(o *Config) {
		o.Timeout = d
	}
}

// WithStrictPong は、Pongのペイロードを検証するかどうかを設定します。
func WithStrictPong(strict bool) Option {
	return func(o *Config) {
		o.StrictPong = strict
	}
}

// WithPassControlFrames は、制御フレームを Incoming に配送するかどうかを設定します。
func WithPassControlFrames(pass bool) Option {
	return func(o *Config) {
		o.PassControlFrames = pass
	}
}

// WithCloseTimeout は、異常終了時のCloseフレーム送信のタイムアウトを設定します。
func WithCloseTimeout(d time.Duration) Option {
	return func(o *Config) {
		o.CloseTimeout = d
	}
}

// WithLogger は、ロガーを設定します。
func WithLogger(l log.Logger) Option {
	return func(o *Config) {
		o.Logger = l
	}
}

// WithMaskKeySource は、マスクキーの生成関数を設定します。
func WithMaskKeySource(f func() uint32) Option {
	return func(o *Config) {
		o.MaskKeySource = f
	}
}

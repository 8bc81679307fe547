/*
Package wsproto は、バイトストリーム上でWebSocketプロトコル（RFC 6455）を扱うパッケージ群です。

HTTPのアップグレードは対象外です。アップグレードが完了したコネクションを受け取り、
フレームの読み書きとセッションのライフサイクル（キープアライブ、タイムアウト、クローズ）を管理します。

# Packages

  - frame: フレームの型、インクリメンタルなパーサー、フレームの書き込み
  - extension: 拡張（permessage-deflate など）を適用するパイプライン
  - websocket: RawSession と DefaultSession
  - transport: セッションの下位にあるバイトストリーム
  - log, errors: ロガーとエラー定義

# Echo Client

このサンプルでは、gobwas/ws でハンドシェイクを行い、DefaultSession でメッセージを送受信します。

	package main

	import (
		"context"
		"log"
		"time"

		"github.com/gobwas/ws"

		"github.com/aptpod/wsproto-go/frame"
		"github.com/aptpod/wsproto-go/transport"
		"github.com/aptpod/wsproto-go/websocket"
	)

	func main() {
		ctx := context.Background()
		conn, br, _, err := ws.Dial(ctx, "ws://localhost:8080/")
		if err != nil {
			log.Fatalf("%+v", err)
		}

		// クライアントはマスクしたフレームを送信します。
		sess := websocket.New(transport.FromUpgraded(conn, br),
			websocket.WithClient(true),
			websocket.WithPingInterval(10*time.Second),
		)
		if err := sess.Start(); err != nil {
			log.Fatalf("%+v", err)
		}
		defer sess.Terminate()

		if err := sess.Send(ctx, frame.NewText("hello")); err != nil {
			log.Fatalf("%+v", err)
		}
		log.Printf("%v", <-sess.Incoming())

		if err := sess.Close(ctx, frame.CloseReason{Code: frame.CloseNormal, Message: "bye"}); err != nil {
			log.Fatalf("%+v", err)
		}
	}
*/
package wsproto

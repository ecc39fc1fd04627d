/*
Package handler provides the HTTP handlers and routing setup for the realtime gateway.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
the connect-time authentication handshake, upgrading the HTTP connection to WebSocket,
and initiating the client lifecycle.
*/
package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"eventlive/internal/app/realtime"
	"eventlive/internal/pkg/auth/jwt"
	"eventlive/internal/pkg/errs"
	"eventlive/internal/pkg/limiter"
	"eventlive/internal/pkg/logx"
	"eventlive/internal/pkg/resp"
)

// handshakeWriteWait bounds the auth_error write on a failed handshake.
const handshakeWriteWait = 5 * time.Second

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
//
// The handshake order is: IP rate limit (HTTP 429 before upgrade), upgrade,
// synchronous token verification (on failure an auth_error event with a
// machine-readable code is written, then the transport is closed), and the
// per-user fixed-window connection limit (on denial the transport is closed
// silently, with no reason echoed).
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: IP rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		// The token is read before the upgrade, but verification failures are
		// reported on the socket so clients get a structured auth_error event.
		tokenString := jwt.BearerToken(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		if tokenString == "" {
			rejectHandshake(conn, errs.NewError(errs.ErrAuthFailed))
			return
		}

		claims, verifyErr := jwt.VerifyToken(tokenString, deps.Config.JWTSecret)
		if verifyErr != nil {
			rejectHandshake(conn, verifyErr)
			return
		}

		currentUser := claims.User()

		if !deps.Hub.Admit(currentUser.ID, time.Now()) {
			// Denial is silent: no reason frame is written.
			logx.Warn("WebSocket connection rejected: connection window exceeded.", "user_id", currentUser.ID)
			conn.Close()
			return
		}

		client := realtime.NewClient(deps.Hub, conn, currentUser)

		go client.WritePump()

		deps.Hub.Register(client)

		logx.Info("WebSocket connection established and client registered",
			"user_id", currentUser.ID, "email", currentUser.Email)

		client.ReadPump()
	}
}

// rejectHandshake emits the auth_error event with its machine-readable code,
// then closes the transport.
func rejectHandshake(conn *websocket.Conn, customErr *errs.CustomError) {
	frame, err := json.Marshal(realtime.Envelope{
		Event: realtime.EventAuthError,
		Payload: realtime.AuthErrorPayload{
			Message: customErr.Message,
			Code:    customErr.WireCode,
		},
	})

	if err == nil {
		conn.SetWriteDeadline(time.Now().Add(handshakeWriteWait))
		if writeErr := conn.WriteMessage(websocket.TextMessage, frame); writeErr != nil {
			logx.Warn("Failed to write auth_error frame before close", "error", writeErr)
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, customErr.WireCode))
	}

	conn.Close()

	logx.Warn("WebSocket handshake rejected.", "code", customErr.WireCode)
}

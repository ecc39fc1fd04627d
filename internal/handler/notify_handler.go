package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventlive/internal/app/realtime"
	"eventlive/internal/pkg/errs"
	"eventlive/internal/pkg/req"
	"eventlive/internal/pkg/resp"
)

// The notify endpoints are the HTTP face of the gateway facade: the CRUD
// services (tasks, events, friends) push live notifications through them.
// They perform no authorization: callers are trusted internal services that
// have already checked access, and the routes are expected to be reachable
// only from the private network.

type notifyUserRequest struct {
	UserID       string                `json:"userId"`
	Notification realtime.Notification `json:"notification"`
}

type notifyRoomRequest struct {
	Room         string                `json:"room"`
	Notification realtime.Notification `json:"notification"`
}

// HandleNotifyUser pushes a notification to one user's live connection.
func HandleNotifyUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body notifyUserRequest
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		if body.UserID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		gateway := deps.Hub.Gateway()
		online := gateway.IsOnline(body.UserID)
		gateway.NotifyUser(body.UserID, body.Notification)

		resp.RespondSuccess(w, r, map[string]any{"delivered": online})
	}
}

// HandleNotifyRoom pushes a notification to every member of a room.
func HandleNotifyRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body notifyRoomRequest
		if bindErr := req.BindJSON(r, &body); bindErr != nil {
			resp.RespondError(w, r, bindErr)
			return
		}

		if body.Room == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		deps.Hub.Gateway().NotifyRoom(body.Room, body.Notification)

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleOnlineUsers lists the ids of all currently connected users.
func HandleOnlineUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"users": deps.Hub.Gateway().OnlineUsers(),
		})
	}
}

// HandleIsOnline reports whether one user currently has a live connection.
func HandleIsOnline(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")
		if userID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"online": deps.Hub.Gateway().IsOnline(userID),
		})
	}
}

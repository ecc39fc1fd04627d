package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"eventlive/internal/app/whiteboard"
	"eventlive/internal/pkg/auth/jwt"
	"eventlive/internal/pkg/errs"
	"eventlive/internal/pkg/logx"
	"eventlive/internal/pkg/resp"
)

// archiveURLDuration is how long a presigned snapshot download stays valid.
const archiveURLDuration = 5 * time.Minute

// whiteboardStateResponse is the REST view of a board: the element list plus
// the live roster. Cold boards (no live state) are served from the persisted
// snapshot with an empty roster.
type whiteboardStateResponse struct {
	RoomID       string                   `json:"roomId"`
	Elements     []whiteboard.Element     `json:"elements"`
	Participants []whiteboard.Participant `json:"participants"`
	TakenAt      time.Time                `json:"takenAt"`
	Live         bool                     `json:"live"`
}

// HandleGetWhiteboard serves the current element state of a board. Live rooms
// are answered from the engine's authoritative in-memory copy; cold rooms
// fall back to the persisted snapshot.
func HandleGetWhiteboard(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		boardID := chi.URLParam(r, "id")
		if boardID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		room := whiteboard.NormalizeRoom(boardID)

		allowed, err := deps.Store.CanAccessEvent(r.Context(), claims.UserID, whiteboard.BareID(room))
		if err != nil {
			logx.Error(err, "Whiteboard access check failed", "room", room, "user_id", claims.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !allowed {
			resp.RespondError(w, r, errs.NewError(errs.ErrAccessDenied))
			return
		}

		if snap, ok := deps.Hub.Board().RoomState(room); ok {
			resp.RespondSuccess(w, r, whiteboardStateResponse{
				RoomID:       snap.RoomID,
				Elements:     snap.Elements,
				Participants: deps.Hub.Board().Participants(room),
				TakenAt:      snap.TakenAt,
				Live:         true,
			})
			return
		}

		stored, err := deps.Store.LoadSnapshot(r.Context(), room)
		if err != nil {
			logx.Error(err, "Failed to load persisted whiteboard snapshot", "room", room)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if stored == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrWhiteboardNotFound))
			return
		}

		resp.RespondSuccess(w, r, whiteboardStateResponse{
			RoomID:       stored.RoomID,
			Elements:     stored.Elements,
			Participants: []whiteboard.Participant{},
			TakenAt:      stored.TakenAt,
			Live:         false,
		})
	}
}

// HandleGetWhiteboardArchive returns a presigned URL for downloading the
// archived snapshot JSON directly from the object store.
func HandleGetWhiteboardArchive(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := jwt.GetClaimsFromContext(r)
		if claims == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if deps.Archive == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrWhiteboardNotFound))
			return
		}

		boardID := chi.URLParam(r, "id")
		if boardID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		room := whiteboard.NormalizeRoom(boardID)

		allowed, err := deps.Store.CanAccessEvent(r.Context(), claims.UserID, whiteboard.BareID(room))
		if err != nil {
			logx.Error(err, "Whiteboard access check failed", "room", room, "user_id", claims.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}
		if !allowed {
			resp.RespondError(w, r, errs.NewError(errs.ErrAccessDenied))
			return
		}

		url, err := deps.Archive.PresignDownload(r.Context(), room, archiveURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"url": url})
	}
}

package handler

import (
	"eventlive/internal/app/realtime"
	"eventlive/internal/app/storage"
	"eventlive/internal/app/store"
	"eventlive/internal/configs"
)

// AppDeps bundles the dependencies shared by the HTTP handlers.
type AppDeps struct {
	Hub     *realtime.Hub
	Config  *configs.AppConfig
	Store   store.Store
	Archive storage.ArchiveService
}

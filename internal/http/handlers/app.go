package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"photoanimator/internal/catalog"
	"photoanimator/internal/infra"
	"photoanimator/internal/storage"
	"photoanimator/internal/studio"
)

type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Sessions *studio.Registry
	Catalog  *catalog.Catalog
	Store    storage.ArtifactStore
	Now      func() time.Time
}

func NewApp(cfg *infra.Config, logger infra.Logger, sessions *studio.Registry, cat *catalog.Catalog, store storage.ArtifactStore) *App {
	return &App{
		Config:   cfg,
		Logger:   logger,
		Sessions: sessions,
		Catalog:  cat,
		Store:    store,
		Now:      time.Now,
	}
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Notice  *studio.Notice `json:"notice,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

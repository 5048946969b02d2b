package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"photoanimator/internal/domain"
	"photoanimator/internal/middleware"
	"photoanimator/internal/studio"
)

type artifactView struct {
	ContentType string        `json:"content_type"`
	Format      domain.Format `json:"format"`
	Size        int           `json:"size"`
	Filename    string        `json:"filename"`
	DownloadURL string        `json:"download_url"`
}

type jobView struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Progress   int           `json:"progress"`
	Artifact   *artifactView `json:"artifact,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type sessionView struct {
	SessionID string                  `json:"session_id"`
	Version   uint64                  `json:"version"`
	Phase     studio.Phase            `json:"phase"`
	Settings  domain.AnimationRequest `json:"settings"`
	Image     *studio.ImageInfo       `json:"image,omitempty"`
	Job       *jobView                `json:"job,omitempty"`
	Notice    *studio.Notice          `json:"notice,omitempty"`
}

func (a *App) view(id uuid.UUID, snap studio.Snapshot) sessionView {
	v := sessionView{
		SessionID: id.String(),
		Version:   snap.Version,
		Phase:     snap.Phase,
		Settings:  snap.Request,
		Image:     snap.Image,
		Notice:    snap.Notice,
	}
	if snap.JobID != uuid.Nil {
		job := &jobView{
			ID:        snap.JobID.String(),
			StartedAt: snap.JobStartedAt,
			Progress:  snap.Progress(a.now()),
			Error:     snap.Reason(),
		}
		if !snap.JobFinishedAt.IsZero() {
			finished := snap.JobFinishedAt
			job.FinishedAt = &finished
		}
		if snap.Artifact != nil {
			job.Artifact = &artifactView{
				ContentType: snap.Artifact.ContentType,
				Format:      snap.Artifact.Format,
				Size:        snap.Artifact.Size(),
				Filename:    artifactFilename(snap),
				DownloadURL: fmt.Sprintf("/v1/sessions/%s/download", id),
			}
		}
		v.Job = job
	}
	return v
}

func artifactFilename(snap studio.Snapshot) string {
	return snap.Artifact.Filename("animation-" + snap.JobID.String()[:8])
}

// session resolves the {id} URL parameter; it writes the 404 itself.
func (a *App) session(w http.ResponseWriter, r *http.Request) (uuid.UUID, *studio.Controller, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return uuid.Nil, nil, false
	}
	ctrl, ok := a.Sessions.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return uuid.Nil, nil, false
	}
	return id, ctrl, true
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	id, ctrl, err := a.Sessions.Create(locale)
	if err != nil {
		a.commandError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+id.String())
	a.json(w, http.StatusCreated, a.view(id, ctrl.Snapshot()))
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, a.view(id, ctrl.Snapshot()))
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil || !a.Sessions.Delete(id) {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutImage takes the raw image as the request body; Content-Type is only a
// hint, the format is sniffed.
func (a *App) PutImage(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, domain.MaxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.commandError(w, r, fmt.Errorf("%w: limit %d bytes", domain.ErrImageTooLarge, domain.MaxImageBytes))
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}
	if err := ctrl.SelectImage(data, r.Header.Get("Content-Type")); err != nil {
		a.commandError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.view(id, ctrl.Snapshot()))
}

func (a *App) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	ctrl.ClearImage()
	a.json(w, http.StatusOK, a.view(id, ctrl.Snapshot()))
}

// PatchSettings applies a partial settings object as a single transition; a
// bad field leaves every field unchanged.
func (a *App) PatchSettings(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var patch map[string]any
	if err := dec.Decode(&patch); err != nil || patch == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "settings must be a JSON object")
		return
	}

	values := make(map[domain.Field]any, len(patch))
	for name, value := range patch {
		field, err := domain.ParseField(name)
		if err != nil {
			a.commandError(w, r, err)
			return
		}
		values[field] = value
	}
	if err := ctrl.UpdateSettings(values); err != nil {
		a.commandError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.view(id, ctrl.Snapshot()))
}

// Generate submits the current draft. The job outlives the request; poll
// the session to follow it.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	if _, err := ctrl.Submit(r.Context()); err != nil {
		a.commandError(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, a.view(id, ctrl.Snapshot()))
}

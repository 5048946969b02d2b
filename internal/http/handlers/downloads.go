package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"photoanimator/internal/middleware"
	"photoanimator/internal/storage"
	"photoanimator/internal/studio"
	"photoanimator/pkg/zip"
)

// succeeded writes 409 unless the session holds a finished artifact.
func (a *App) succeeded(w http.ResponseWriter, snap studio.Snapshot) bool {
	if snap.Phase != studio.PhaseSucceeded || snap.Artifact == nil {
		a.error(w, http.StatusConflict, "no_artifact", fmt.Sprintf("session is %s, no video to download", snap.Phase))
		return false
	}
	return true
}

// Download streams the artifact, or with ?bundle=zip an archive holding the
// artifact and the settings it was rendered with.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	snap := ctrl.Snapshot()
	if !a.succeeded(w, snap) {
		return
	}
	filename := artifactFilename(snap)

	if strings.EqualFold(r.URL.Query().Get("bundle"), "zip") {
		settings, err := json.MarshalIndent(snap.Request, "", "  ")
		if err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to encode settings")
			return
		}
		archive, err := zip.ArchiveAssets([]zip.Asset{
			{Filename: filename, MIME: snap.Artifact.ContentType, Data: snap.Artifact.Data, Modified: snap.JobFinishedAt},
			{Filename: "request.json", MIME: "application/json", Data: settings, Modified: snap.JobFinishedAt},
		})
		if err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
			return
		}
		base := strings.TrimSuffix(filename, snap.Artifact.Format.Extension())
		a.attachment(w, "application/zip", base+".zip", archive)
		return
	}
	a.attachment(w, snap.Artifact.ContentType, filename, snap.Artifact.Data)
}

func (a *App) attachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type exportView struct {
	Key      string         `json:"key"`
	Location string         `json:"location"`
	Created  bool           `json:"created"`
	Notice   *studio.Notice `json:"notice,omitempty"`
}

// Export persists the artifact into the configured store. Exporting the
// same job twice does not write again.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	_, ctrl, ok := a.session(w, r)
	if !ok {
		return
	}
	snap := ctrl.Snapshot()
	if !a.succeeded(w, snap) {
		return
	}
	if a.Store == nil {
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "no artifact store configured")
		return
	}

	key := storage.ArtifactKey(snap.JobID, snap.Artifact.Format)
	exists, err := a.Store.Exists(r.Context(), key)
	if err != nil {
		a.Logger.Error().Err(err).Str("key", key).Msg("http: export lookup failed")
		a.error(w, http.StatusBadGateway, "storage_error", "failed to reach artifact store")
		return
	}
	status := http.StatusOK
	if !exists {
		if _, err := a.Store.Write(r.Context(), key, snap.Artifact.Data, snap.Artifact.ContentType); err != nil {
			a.Logger.Error().Err(err).Str("key", key).Msg("http: export write failed")
			a.error(w, http.StatusBadGateway, "storage_error", "failed to store artifact")
			return
		}
		status = http.StatusCreated
		a.Logger.Info().
			Str("job_id", snap.JobID.String()).
			Str("key", key).
			Int("bytes", snap.Artifact.Size()).
			Msg("http: artifact exported")
	}
	notice := studio.NewNotice(middleware.LocaleFromContext(r.Context()), studio.NoticeDownloadStarted, a.now())
	a.json(w, status, exportView{
		Key:      key,
		Location: a.Store.Location(key),
		Created:  !exists,
		Notice:   &notice,
	})
}

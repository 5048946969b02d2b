package handlers

import (
	"errors"
	"net/http"

	"photoanimator/internal/domain"
	"photoanimator/internal/middleware"
	"photoanimator/internal/studio"
)

// commandError renders a refused controller command. The session state is
// unchanged, so the notice travels in the error body only.
func (a *App) commandError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	body := errorBody{Code: code, Message: err.Error()}

	var settingErr *domain.InvalidSettingError
	if errors.As(err, &settingErr) {
		body.Field = string(settingErr.Field)
	}
	locale := middleware.LocaleFromContext(r.Context())
	if notice, ok := studio.NoticeForError(locale, err, a.now()); ok {
		body.Notice = &notice
	}
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("http: command failed")
	}
	a.json(w, status, map[string]errorBody{"error": body})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingImage):
		return http.StatusUnprocessableEntity, "missing_image"
	case errors.Is(err, domain.ErrEmptyPrompt):
		return http.StatusUnprocessableEntity, "empty_prompt"
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusUnprocessableEntity, "not_ready"
	case errors.Is(err, domain.ErrInvalidSetting):
		return http.StatusBadRequest, "invalid_setting"
	case errors.Is(err, domain.ErrAlreadyRunning):
		return http.StatusConflict, "already_running"
	case errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "image_too_large"
	case errors.Is(err, domain.ErrInvalidImage):
		return http.StatusUnsupportedMediaType, "invalid_image"
	case errors.Is(err, studio.ErrClosed):
		return http.StatusGone, "session_closed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

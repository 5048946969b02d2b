package handlers

import (
	"net/http"

	"photoanimator/internal/catalog"
	"photoanimator/internal/domain"
	"photoanimator/internal/middleware"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"pipeline": a.Config.Pipeline,
		"sessions": a.Sessions.Len(),
	})
}

type limitsView struct {
	MinDuration   int `json:"min_duration"`
	MaxDuration   int `json:"max_duration"`
	MinIntensity  int `json:"min_intensity"`
	MaxIntensity  int `json:"max_intensity"`
	IntensityStep int `json:"intensity_step"`
	MaxImageBytes int `json:"max_image_bytes"`
}

type catalogView struct {
	Locale      string                  `json:"locale"`
	Suggestions []string                `json:"suggestions"`
	Examples    []catalog.Example       `json:"examples"`
	Styles      []domain.Style          `json:"styles"`
	Formats     []domain.Format         `json:"formats"`
	Defaults    domain.AnimationRequest `json:"defaults"`
	Limits      limitsView              `json:"limits"`
}

// ListCatalog lists everything the creation screen needs to draw its controls.
func (a *App) ListCatalog(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, catalogView{
		Locale:      locale,
		Suggestions: a.Catalog.SuggestionsFor(locale),
		Examples:    a.Catalog.ExamplesFor(locale),
		Styles:      domain.Styles(),
		Formats:     domain.Formats(),
		Defaults:    domain.DefaultAnimationRequest(),
		Limits: limitsView{
			MinDuration:   domain.MinDuration,
			MaxDuration:   domain.MaxDuration,
			MinIntensity:  domain.MinIntensity,
			MaxIntensity:  domain.MaxIntensity,
			IntensityStep: domain.IntensityStep,
			MaxImageBytes: domain.MaxImageBytes,
		},
	})
}

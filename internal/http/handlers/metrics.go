package handlers

import (
	"net/http"

	"photoanimator/internal/studio"
)

type dashboardView struct {
	Sessions int                  `json:"sessions"`
	Phases   map[studio.Phase]int `json:"phases"`
	Running  int                  `json:"running"`
}

// Dashboard is a JSON summary of live sessions. Counters for scraping are
// served by promhttp on /v1/metrics.
func (a *App) Dashboard(w http.ResponseWriter, _ *http.Request) {
	phases := a.Sessions.Phases()
	total := 0
	for _, n := range phases {
		total += n
	}
	a.json(w, http.StatusOK, dashboardView{
		Sessions: total,
		Phases:   phases,
		Running:  phases[studio.PhaseRunning],
	})
}

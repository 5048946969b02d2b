package tui

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"photoanimator/internal/domain"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Editing {
			return m.handleEditKey(msg)
		}
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(pollSnapshot(m.Controller), tickCmd())
	case SnapshotMsg:
		if msg.Snapshot.Version >= m.Snapshot.Version {
			m.Snapshot = msg.Snapshot
		}
		return m, nil
	case ImageLoadedMsg:
		if msg.Err != nil {
			return m.fail(msg.Err), nil
		}
		m.SavedTo = ""
		return m.refresh(), nil
	case SubmittedMsg:
		if msg.Err != nil {
			return m.fail(msg.Err), nil
		}
		m.SavedTo = ""
		return m.refresh(), nil
	case SavedMsg:
		if msg.Err != nil {
			return m.fail(msg.Err), nil
		}
		m.SavedTo = msg.Location
		return m, nil
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.Controller.Close()
		return m, tea.Quit
	case "tab", "down", "j":
		m.Focus = (m.Focus + 1) % len(domain.Fields())
	case "shift+tab", "up", "k":
		m.Focus = (m.Focus + len(domain.Fields()) - 1) % len(domain.Fields())
	case "right", "l", "+":
		return m.adjust(1), nil
	case "left", "h", "-":
		return m.adjust(-1), nil
	case "enter", "e":
		if m.focused() == domain.FieldPrompt {
			m.Editing = true
			m.Draft = []rune(m.Snapshot.Request.Prompt())
		}
	case "s":
		if len(m.Suggestions) == 0 {
			return m, nil
		}
		prompt := m.Suggestions[m.suggestion%len(m.Suggestions)]
		m.suggestion++
		return m.set(domain.FieldPrompt, prompt), nil
	case "o":
		if m.ImagePath == "" {
			return m, nil
		}
		m = m.clearProblem()
		return m, loadImage(m.Controller, m.ImagePath)
	case "x":
		m.Controller.ClearImage()
		m.SavedTo = ""
		return m.clearProblem().refresh(), nil
	case "g":
		m = m.clearProblem()
		return m, submit(m.Controller)
	case "w":
		if m.Store == nil || m.Snapshot.Artifact == nil {
			return m, nil
		}
		m = m.clearProblem()
		return m, saveArtifact(m.Store, m.Snapshot)
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.Controller.Close()
		return m, tea.Quit
	case tea.KeyEsc:
		m.Editing = false
		m.Draft = nil
	case tea.KeyEnter:
		m.Editing = false
		prompt := string(m.Draft)
		m.Draft = nil
		return m.set(domain.FieldPrompt, prompt), nil
	case tea.KeyBackspace:
		if len(m.Draft) > 0 {
			m.Draft = m.Draft[:len(m.Draft)-1]
		}
	case tea.KeySpace:
		m.Draft = append(m.Draft, ' ')
	case tea.KeyRunes:
		m.Draft = append(m.Draft, msg.Runes...)
	}
	return m, nil
}

// adjust steps the focused setting. Numbers move by their step and clamp at
// the bounds; enumerations cycle.
func (m Model) adjust(dir int) Model {
	req := m.Snapshot.Request
	switch field := m.focused(); field {
	case domain.FieldDuration:
		return m.set(field, clamp(req.Duration()+dir, domain.MinDuration, domain.MaxDuration))
	case domain.FieldIntensity:
		return m.set(field, clamp(req.Intensity()+dir*domain.IntensityStep, domain.MinIntensity, domain.MaxIntensity))
	case domain.FieldStyle:
		return m.set(field, cycle(domain.Styles(), req.Style(), dir))
	case domain.FieldFormat:
		return m.set(field, cycle(domain.Formats(), req.Format(), dir))
	}
	return m
}

func (m Model) set(field domain.Field, value any) Model {
	if err := m.Controller.UpdateSetting(field, value); err != nil {
		return m.fail(err)
	}
	return m.clearProblem().refresh()
}

func (m Model) refresh() Model {
	m.Snapshot = m.Controller.Snapshot()
	return m
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func cycle[T comparable](values []T, current T, dir int) T {
	i := slices.Index(values, current)
	if i < 0 {
		return values[0]
	}
	n := len(values)
	return values[((i+dir)%n+n)%n]
}

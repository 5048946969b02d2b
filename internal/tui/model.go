package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"photoanimator/internal/domain"
	"photoanimator/internal/storage"
	"photoanimator/internal/studio"
)

// Model is the terminal front end of a single studio session. It issues
// commands to the controller and redraws from polled snapshots.
type Model struct {
	Controller  *studio.Controller
	Store       storage.ArtifactStore
	ImagePath   string
	Suggestions []string

	Snapshot studio.Snapshot
	Focus    int
	Editing  bool
	Draft    []rune
	// Problem is a refused command. It is shown until the next command.
	Problem    *studio.Notice
	Err        error
	SavedTo    string
	suggestion int
	now        func() time.Time
}

// NewModel builds a model for ctrl. imagePath may be empty; 'o' then has
// nothing to load.
func NewModel(ctrl *studio.Controller, store storage.ArtifactStore, imagePath string, suggestions []string) Model {
	return Model{
		Controller:  ctrl,
		Store:       store,
		ImagePath:   imagePath,
		Suggestions: suggestions,
		Snapshot:    ctrl.Snapshot(),
		now:         time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{pollSnapshot(m.Controller), tickCmd()}
	if m.ImagePath != "" {
		cmds = append(cmds, loadImage(m.Controller, m.ImagePath))
	}
	return tea.Batch(cmds...)
}

func (m Model) focused() domain.Field {
	fields := domain.Fields()
	return fields[m.Focus%len(fields)]
}

// fail records a refused command, preferring the localised notice.
func (m Model) fail(err error) Model {
	m.Err = err
	m.Problem = nil
	if notice, ok := studio.NoticeForError(m.Controller.Locale(), err, m.now()); ok {
		m.Problem = &notice
	}
	return m
}

func (m Model) clearProblem() Model {
	m.Err = nil
	m.Problem = nil
	return m
}

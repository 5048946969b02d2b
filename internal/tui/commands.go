package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"photoanimator/internal/storage"
	"photoanimator/internal/studio"
)

const pollInterval = 200 * time.Millisecond

func pollSnapshot(ctrl *studio.Controller) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: ctrl.Snapshot()}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func loadImage(ctrl *studio.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return ImageLoadedMsg{Path: path, Err: fmt.Errorf("read %s: %w", path, err)}
		}
		return ImageLoadedMsg{Path: path, Err: ctrl.SelectImage(data, mime.TypeByExtension(filepath.Ext(path)))}
	}
}

func submit(ctrl *studio.Controller) tea.Cmd {
	return func() tea.Msg {
		id, err := ctrl.Submit(context.Background())
		return SubmittedMsg{JobID: id, Err: err}
	}
}

func saveArtifact(store storage.ArtifactStore, snap studio.Snapshot) tea.Cmd {
	return func() tea.Msg {
		if snap.Artifact == nil {
			return SavedMsg{Err: fmt.Errorf("no video to save")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key := storage.ArtifactKey(snap.JobID, snap.Artifact.Format)
		if _, err := store.Write(ctx, key, snap.Artifact.Data, snap.Artifact.ContentType); err != nil {
			return SavedMsg{Err: err}
		}
		return SavedMsg{Location: store.Location(key)}
	}
}

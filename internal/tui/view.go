package tui

import (
	"fmt"
	"strings"

	"photoanimator/internal/domain"
	"photoanimator/internal/studio"
)

const (
	textFooterEditing = "Enter to apply | Esc to cancel"
	textFooter        = "Tab/↑↓ select | ←→ adjust | Enter edit prompt | s suggestion | o load image | x clear | g generate | w save | q quit"
	progressWidth     = 30
)

func (m Model) View() string {
	var b strings.Builder
	snap := m.Snapshot

	b.WriteString(TitleStyle.Render("Photo Animator"))
	b.WriteString("\n\n")
	b.WriteString(m.phaseText())
	b.WriteString("\n\n")

	if snap.Image != nil {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("Image: %s %dx%d, %d bytes", snap.Image.Format, snap.Image.Width, snap.Image.Height, snap.Image.Size)))
	} else {
		b.WriteString(InfoStyle.Render("Image: none"))
	}
	b.WriteString("\n\n")

	b.WriteString(BoxStyle.Render(m.settingsText()))
	b.WriteString("\n\n")

	if snap.Phase == studio.PhaseRunning || snap.Phase == studio.PhaseSucceeded {
		b.WriteString(progressBar(snap.Progress(m.now())))
		b.WriteString("\n\n")
	}

	if n := m.notice(); n != nil {
		b.WriteString(noticeText(*n))
		b.WriteString("\n")
	} else if m.Err != nil {
		b.WriteString(ErrorStyle.Render("Error: " + m.Err.Error()))
		b.WriteString("\n")
	}
	if m.SavedTo != "" {
		b.WriteString(StatusStyle.Render("Saved to " + m.SavedTo))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.Editing {
		b.WriteString(InfoStyle.Render(textFooterEditing))
	} else {
		b.WriteString(InfoStyle.Render(textFooter))
	}
	return b.String()
}

func (m Model) phaseText() string {
	snap := m.Snapshot
	switch snap.Phase {
	case studio.PhaseIdle:
		return InfoStyle.Render("Load an image to begin")
	case studio.PhaseAwaitingInput:
		if snap.Image == nil {
			return InfoStyle.Render("Waiting for an image")
		}
		return InfoStyle.Render("Describe the motion to continue")
	case studio.PhaseReady:
		return HighlightStyle.Render("Ready, press g to generate")
	case studio.PhaseRunning:
		return StatusStyle.Render("Generating video...")
	case studio.PhaseSucceeded:
		return HighlightStyle.Render(fmt.Sprintf("Done: %s, %d bytes", snap.Artifact.ContentType, snap.Artifact.Size()))
	case studio.PhaseFailed:
		return ErrorStyle.Render("Failed: " + snap.Reason())
	default:
		return ""
	}
}

func (m Model) settingsText() string {
	req := m.Snapshot.Request
	var b strings.Builder
	for i, field := range domain.Fields() {
		var value string
		switch field {
		case domain.FieldPrompt:
			value = req.Prompt()
			if m.Editing {
				value = string(m.Draft) + "█"
			} else if value == "" {
				value = InfoStyle.Render("(empty)")
			}
		case domain.FieldDuration:
			value = fmt.Sprintf("%d s", req.Duration())
		case domain.FieldStyle:
			value = string(req.Style())
		case domain.FieldIntensity:
			value = fmt.Sprintf("%d %%", req.Intensity())
		case domain.FieldFormat:
			value = strings.ToUpper(string(req.Format()))
		}
		label := fmt.Sprintf("%-10s", field)
		if i == m.Focus%len(domain.Fields()) {
			b.WriteString(FocusStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString(" " + value)
		if i < len(domain.Fields())-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// notice picks the refused-command notice over the controller's own.
func (m Model) notice() *studio.Notice {
	if m.Problem != nil {
		return m.Problem
	}
	if m.Err != nil {
		return nil
	}
	return m.Snapshot.Notice
}

func noticeText(n studio.Notice) string {
	style := StatusStyle
	if n.Variant == studio.VariantDestructive {
		style = ErrorStyle
	}
	return style.Render(n.Title) + "\n" + InfoStyle.Render(n.Description)
}

func progressBar(percent int) string {
	filled := percent * progressWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)
	return StatusStyle.Render(bar) + fmt.Sprintf(" %3d%%", percent)
}

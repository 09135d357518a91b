package panel

import "github.com/charmbracelet/lipgloss"

var (
	sky    = lipgloss.Color("#87CEEB")
	tomato = lipgloss.Color("#FF6347")
	ink    = lipgloss.Color("#000000")
	muted  = lipgloss.Color("#8A8A8A")
	accent = lipgloss.Color("#8BC34A")
)

type styles struct {
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Label      lipgloss.Style
	Focused    lipgloss.Style
	Muted      lipgloss.Style
	Error      lipgloss.Style
	Selected   lipgloss.Style
	Dirty      lipgloss.Style
	Pane       lipgloss.Style
	ToastOK    lipgloss.Style
	ToastInfo  lipgloss.Style
	ToastError lipgloss.Style
}

func defaultStyles() styles {
	toast := lipgloss.NewStyle().Foreground(ink).Padding(0, 2).Bold(true)
	return styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		Subtitle:   lipgloss.NewStyle().Bold(true).Underline(true),
		Label:      lipgloss.NewStyle().Width(28),
		Focused:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(muted),
		Error:      lipgloss.NewStyle().Foreground(tomato).Bold(true),
		Selected:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		Dirty:      lipgloss.NewStyle().Foreground(tomato).Italic(true),
		Pane:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		ToastOK:    toast.Background(sky),
		ToastInfo:  toast.Background(sky),
		ToastError: toast.Background(tomato),
	}
}

func (s styles) toast(kind ToastKind) lipgloss.Style {
	switch kind {
	case ToastError:
		return s.ToastError
	case ToastInfo:
		return s.ToastInfo
	default:
		return s.ToastOK
	}
}

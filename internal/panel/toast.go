package panel

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const toastTTL = 5 * time.Second

type ToastKind int

const (
	ToastSuccess ToastKind = iota
	ToastInfo
	ToastError
)

type Toast struct {
	ID   int
	Kind ToastKind
	Text string
}

// toastExpiredMsg dismisses the toast with the given id.
type toastExpiredMsg struct{ id int }

// toasts is a queue of notices that each dismiss themselves after ttl.
type toasts struct {
	next  int
	items []Toast
	ttl   time.Duration
}

func (t *toasts) push(kind ToastKind, text string) tea.Cmd {
	t.next++
	id := t.next
	t.items = append(t.items, Toast{ID: id, Kind: kind, Text: text})

	ttl := t.ttl
	if ttl <= 0 {
		ttl = toastTTL
	}
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (t *toasts) dismiss(id int) {
	for i, item := range t.items {
		if item.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			return
		}
	}
}

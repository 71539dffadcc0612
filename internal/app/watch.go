package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// stateChangedMsg tells the root model to re-read the service views.
type stateChangedMsg struct{}

// watcher turns store notifications into Bubble Tea messages. Notifications
// that arrive while one is already pending are coalesced.
type watcher struct {
	ch          chan struct{}
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func newWatcher(subscribe func(func()) func()) *watcher {
	w := &watcher{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	w.unsubscribe = subscribe(w.notify)
	return w
}

func (w *watcher) notify() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// wait returns a tea.Cmd that blocks until the next change. The model must
// issue a new wait after each stateChangedMsg to keep listening.
func (w *watcher) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.ch:
			return stateChangedMsg{}
		case <-w.done:
			return nil
		}
	}
}

func (w *watcher) stop() {
	w.once.Do(func() {
		w.unsubscribe()
		close(w.done)
	})
}

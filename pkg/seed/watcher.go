package seed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/vanderheijden86/arbor/pkg/tree"
)

// Watcher reports changes to a seed file. Bursts of events (editors often
// write, rename and chmod in quick succession) collapse into one signal.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     logrus.FieldLogger

	changed  chan struct{}
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher creates a watcher for the seed file at path.
func NewWatcher(path string, log logrus.FieldLogger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve seed path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		watcher:  fw,
		log:      log.WithField("seed", abs),
		changed:  make(chan struct{}, 1),
		debounce: 200 * time.Millisecond,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Changed delivers one value per settled burst of changes.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Start begins watching. The parent directory is watched so that files
// replaced by rename keep being tracked.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch seed dir: %w", err)
	}
	go w.loop()
	return nil
}

// Stop shuts the watcher down. Changed is never closed.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("seed watcher error")
		}
	}
}

// schedule (re)arms the debounce timer; the signal fires once events stop.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if w.ctx.Err() != nil {
			return
		}
		select {
		case w.changed <- struct{}{}:
		default:
		}
	})
}

// ReloadedMsg carries a freshly parsed seed file.
type ReloadedMsg struct {
	Nodes []tree.Node
}

// ReloadErrorMsg reports a seed file that changed but could not be loaded.
type ReloadErrorMsg struct {
	Err error
}

// WaitCmd blocks until the seed file changes, then loads it. The UI
// re-issues it after every message to keep listening.
func WaitCmd(w *Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-w.ctx.Done():
			return nil
		case <-w.changed:
		}
		nodes, err := Load(w.path)
		if err != nil {
			return ReloadErrorMsg{Err: err}
		}
		return ReloadedMsg{Nodes: nodes}
	}
}

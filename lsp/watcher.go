package lsp

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

// GrammarWatcher calls onChange after the grammar file was written,
// created or replaced. Events arriving within the debounce interval of each
// other cause a single call.
//
// The directory containing the file is watched rather than the file itself,
// so that editors replacing the file by renaming a new one over it are
// noticed.
type GrammarWatcher struct {
	path     string
	debounce time.Duration
	onChange func()
	watcher  *fsnotify.Watcher
	log      commonlog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewGrammarWatcher(path string, debounce time.Duration, onChange func()) (*GrammarWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &GrammarWatcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		watcher:  watcher,
		log:      commonlog.GetLogger("pegmatch.lsp.watcher"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

func (w *GrammarWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.watcher.Close()
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	go w.run()
	return nil
}

func (w *GrammarWatcher) Stop() error {
	close(w.stopCh)
	<-w.doneCh
	return w.watcher.Close()
}

func (w *GrammarWatcher) run() {
	defer close(w.doneCh)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debugf("%s: %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorf("watch %s: %s", w.path, err)
		}
	}
}

func (w *GrammarWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == w.path
}

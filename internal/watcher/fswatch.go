package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// fsSubscription watches one collection root recursively with fsnotify and
// feeds settled .md file events into a shared debouncer.
type fsSubscription struct {
	collectionID int64
	root         string
	fsw          *fsnotify.Watcher
	debouncer    *Debouncer
	done         chan struct{}
}

func newFSSubscription(collectionID int64, root string, debouncer *Debouncer) (*fsSubscription, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	s := &fsSubscription{
		collectionID: collectionID,
		root:         root,
		fsw:          fsw,
		debouncer:    debouncer,
		done:         make(chan struct{}),
	}

	if err := s.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	go s.run()
	return s, nil
}

func (s *fsSubscription) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return s.fsw.Add(path)
	})
}

func (s *fsSubscription) run() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handle(ev)
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", slog.String("root", s.root), slog.String("error", err.Error()))
		}
	}
}

func (s *fsSubscription) handle(ev fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
		if ev.Op&fsnotify.Create != 0 {
			// A newly created directory needs its own watch.
			_ = s.fsw.Add(ev.Name)
		}
		return
	}

	var op Operation
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		op = OpDelete
	default:
		return
	}

	s.debouncer.Add(FileEvent{
		CollectionID: s.collectionID,
		Path:         ev.Name,
		Operation:    op,
	})
}

func (s *fsSubscription) close() error {
	close(s.done)
	return s.fsw.Close()
}

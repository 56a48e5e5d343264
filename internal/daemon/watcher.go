package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp is what happened to a storage file.
type EventOp int

const (
	OpCreate EventOp = iota // file appeared, including a rename into place
	OpModify                // file contents were written
	OpDelete                // file was removed or renamed away
)

func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileEvent is a change to a storage file.
type FileEvent struct {
	Path string // absolute
	Op   EventOp
}

type watcherState int

const (
	stateIdle watcherState = iota
	stateRunning
	stateStopped
)

// FileWatcher reports changes to storage files in one directory. Temp files
// written by FileStore before its atomic rename are never reported.
type FileWatcher struct {
	fsw    *fsnotify.Watcher
	events chan FileEvent
	errs   chan error

	mu       sync.Mutex
	state    watcherState
	dir      string
	match    func(base string) bool
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// NewFileWatcher creates an idle watcher. Call Start to begin watching.
func NewFileWatcher() (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &FileWatcher{
		fsw:    fsw,
		events: make(chan FileEvent, 100),
		errs:   make(chan error, 10),
	}, nil
}

// Start watches dir. With names only those base names are reported,
// otherwise every *.txt file is.
func (fw *FileWatcher) Start(dir string, names ...string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	switch fw.state {
	case stateRunning:
		return errors.New("watcher already running")
	case stateStopped:
		return errors.New("watcher was stopped")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	if err := fw.fsw.Add(abs); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", abs, err)
	}

	fw.dir = abs
	fw.match = storageFileMatcher(names)

	ctx, cancel := context.WithCancel(context.Background())
	fw.cancel = cancel
	fw.loopDone = make(chan struct{})
	fw.state = stateRunning

	go fw.loop(ctx)
	return nil
}

func storageFileMatcher(names []string) func(string) bool {
	if len(names) == 0 {
		return func(base string) bool { return strings.HasSuffix(base, ".txt") }
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(base string) bool {
		_, ok := set[base]
		return ok
	}
}

// Stop ends watching. After a running watcher stops, Events and Errors are
// closed. Calling Stop on an idle or stopped watcher only releases resources.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	prev := fw.state
	fw.state = stateStopped
	cancel, loopDone := fw.cancel, fw.loopDone
	fw.mu.Unlock()

	if prev != stateRunning {
		if prev == stateIdle {
			return fw.fsw.Close()
		}
		return nil
	}

	cancel()
	closeErr := fw.fsw.Close()
	<-loopDone

	close(fw.events)
	close(fw.errs)

	if closeErr != nil {
		return fmt.Errorf("failed to close watcher: %w", closeErr)
	}
	return nil
}

// Events delivers storage file changes.
func (fw *FileWatcher) Events() <-chan FileEvent { return fw.events }

// Errors delivers errors from the underlying watcher.
func (fw *FileWatcher) Errors() <-chan error { return fw.errs }

// IsRunning reports whether Start succeeded and Stop has not been called.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.state == stateRunning
}

func (fw *FileWatcher) loop(ctx context.Context) {
	defer close(fw.loopDone)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.fsw.Events:
			if !ok {
				return
			}
			fe, keep := fw.translate(ev)
			if !keep {
				continue
			}
			select {
			case fw.events <- fe:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.fsw.Errors:
			if !ok {
				return
			}
			select {
			case fw.errs <- err:
			case <-ctx.Done():
				return
			}
		}
	}
}

// translate maps an fsnotify event onto a FileEvent; chmod-only events and
// files outside the filter are dropped.
func (fw *FileWatcher) translate(ev fsnotify.Event) (FileEvent, bool) {
	path, err := filepath.Abs(ev.Name)
	if err != nil || filepath.Dir(path) != fw.dir {
		return FileEvent{}, false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".tmp-") || !fw.match(base) {
		return FileEvent{}, false
	}

	fe := FileEvent{Path: path}
	switch {
	case ev.Has(fsnotify.Create):
		fe.Op = OpCreate
	case ev.Has(fsnotify.Write):
		fe.Op = OpModify
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		fe.Op = OpDelete
	default:
		return FileEvent{}, false
	}
	return fe, true
}

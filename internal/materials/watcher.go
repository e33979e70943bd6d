package materials

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind describes the type of material file change detected.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota // material file written or created
	ChangeRemoved                    // material file deleted
)

// Change represents a detected change in the material directory.
type Change struct {
	Kind ChangeKind
	File string // absolute path of the material file
}

// Watcher monitors a material directory for definition file changes using
// fsnotify. Events are debounced so an editor's save dance produces one
// change, not five.
type Watcher struct {
	Dir     string
	Ext     string
	Changes <-chan Change // read-only external channel

	changes chan Change // internal write channel
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for material files with the given extension
// in dir.
func NewWatcher(dir, ext string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Dir:     dir,
		Ext:     ext,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
	}
	return w, nil
}

// Start begins watching the material directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and channels.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done // wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per file.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]fsnotify.Event)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	last := make(map[string]time.Time)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(pending[file])
				}
				return
			}

			if !w.isMaterialFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				pending[event.Name] = event
				last[event.Name] = time.Now()
			}

		case _, ok := <-ticker.C:
			if !ok {
				return
			}
			now := time.Now()
			for file, t := range last {
				if now.Sub(t) >= debounce {
					w.emit(pending[file])
					delete(pending, file)
					delete(last, file)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next scan catches up.
		}
	}
}

func (w *Watcher) isMaterialFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), w.Ext)
}

func (w *Watcher) emit(event fsnotify.Event) {
	kind := ChangeModified
	if event.Has(fsnotify.Remove) {
		kind = ChangeRemoved
	}
	w.changes <- Change{Kind: kind, File: event.Name}
}

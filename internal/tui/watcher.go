package tui

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"folio/internal/logging"
)

// storeWatcher reports changes to the workspace database made by other processes (a CLI
// command in another terminal, an MCP client). Bursts are coalesced into one notification.
type storeWatcher struct {
	w       *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
	once    sync.Once
}

func watchStore(dir string, debounce time.Duration, log *zap.Logger) (*storeWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	sw := &storeWatcher{
		w:       w,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     logging.OrNop(log),
	}
	sw.wg.Add(1)
	go sw.loop(debounce)
	return sw, nil
}

func isStoreFile(name string) bool {
	return strings.HasPrefix(filepath.Base(name), "folio.sqlite")
}

func (sw *storeWatcher) loop(debounce time.Duration) {
	defer sw.wg.Done()
	defer close(sw.changes)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if !isStoreFile(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case sw.changes <- struct{}{}:
			default:
				// A notification is already pending.
			}

		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			sw.log.Warn("store watcher", zap.Error(err))

		case <-sw.done:
			return
		}
	}
}

// Changes is closed when the watcher stops.
func (sw *storeWatcher) Changes() <-chan struct{} { return sw.changes }

func (sw *storeWatcher) Close() error {
	var err error
	sw.once.Do(func() {
		close(sw.done)
		err = sw.w.Close()
		sw.wg.Wait()
	})
	return err
}

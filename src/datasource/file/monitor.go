package file

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor watches the source file's directory and fires a handler when
// the file is rewritten. The cron sweep in main covers editors and network
// mounts that do not emit inotify events.
type FileMonitor struct {
	watchFile string
	watcher   *fsnotify.Watcher
	lastMod   time.Time
	mu        sync.Mutex
}

func NewFileMonitor(path string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &FileMonitor{
		watchFile: abs,
		watcher:   watcher,
	}, nil
}

// Watch blocks, invoking handler for every observed rewrite of the target
// file. It returns when the watcher is closed.
func (m *FileMonitor) Watch(handler func(string)) error {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Base(event.Name) != filepath.Base(m.watchFile) {
				continue
			}
			info, err := os.Stat(m.watchFile)
			if err != nil {
				continue
			}

			m.mu.Lock()
			if info.ModTime().After(m.lastMod) {
				m.lastMod = info.ModTime()
				go handler(m.watchFile)
			}
			m.mu.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

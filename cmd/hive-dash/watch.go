package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// configChangedMsg is sent when the fleet config file changes on disk.
type configChangedMsg struct{}

// watchConfigFile creates a file system watcher for the config file's
// directory. Returns nil if the file doesn't exist or watcher creation
// fails (the dashboard keeps running with its loaded config).
func watchConfigFile(path string) tea.Cmd {
	watcher := initWatcher(path)
	if watcher == nil {
		return nil
	}
	return runWatcher(watcher, filepath.Base(path))
}

// initWatcher creates a watcher on the config file's parent directory.
// Watching the directory rather than the file survives editors that
// replace the file on save. Returns nil if initialization fails.
func initWatcher(path string) *fsnotify.Watcher {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("fsnotify: failed to create watcher: %v (config reload disabled)", err)
		return nil
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		log.Printf("fsnotify: failed to watch %s: %v (config reload disabled)", path, err)
		return nil
	}

	return watcher
}

// runWatcher returns a tea.Cmd that waits for changes to the named config
// file and returns configChangedMsg after a debounce window.
func runWatcher(watcher *fsnotify.Watcher, filename string) tea.Cmd {
	return func() tea.Msg {
		debounceTimer := newDebounceTimer()
		defer debounceTimer.Stop()
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				resetDebounceTimer(debounceTimer)

			case <-debounceTimer.C:
				return configChangedMsg{}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Printf("fsnotify: watcher error: %v", err)
				return nil
			}
		}
	}
}

// newDebounceTimer creates a stopped timer for debouncing change events.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

// resetDebounceTimer restarts the debounce window after each raw event.
func resetDebounceTimer(timer *time.Timer) {
	const debounceDuration = 250 * time.Millisecond
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounceDuration)
}

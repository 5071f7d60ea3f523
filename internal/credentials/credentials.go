// Package credentials loads aWhere API keys from a YAML file and watches it
// for external changes, so long-running modes pick up rotated keys without a
// restart.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/MwendaMugendi/awhere-go/internal/logger"
)

// Credentials is the YAML credentials file structure. yaml.v3 accepts JSON
// too, so either file style works.
type Credentials struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// Valid reports whether both halves of the credential pair are present.
func (c Credentials) Valid() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Event represents a credentials service event.
type Event struct {
	Type  EventType
	Error error
	Creds Credentials
}

// EventType defines the type of credentials event.
type EventType int

const (
	EventLoaded EventType = iota
	EventChanged
	EventError
)

// Service manages a credentials file with file watching and change
// notifications.
type Service struct {
	mu            sync.RWMutex
	creds         Credentials
	filePath      string
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
}

// Load reads and parses a credentials file once, without watching it.
func Load(path string) (Credentials, error) {
	var creds Credentials

	data, err := os.ReadFile(path)
	if err != nil {
		return creds, err
	}
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return creds, nil
}

// Save writes credentials atomically with owner-only permissions.
func Save(path string, creds Credentials) error {
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Write to temp file first, then rename
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// New creates a credentials service and starts file watching. A missing file
// becomes an empty template the user can fill in.
func New(filePath string) (*Service, error) {
	s := &Service{
		filePath:  filePath,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	creds, err := Load(filePath)
	switch {
	case err == nil:
		s.creds = creds
	case os.IsNotExist(err):
		if err := Save(filePath, Credentials{}); err != nil {
			return nil, fmt.Errorf("failed to create credentials file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	// Start file watcher
	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventLoaded, Creds: s.creds})

	return s, nil
}

// Events returns the event channel for subscribing to credential changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Get returns the current credentials.
func (s *Service) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory (to catch file creation/deletion)
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			// Only care about our credentials file
			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			// Handle write/create events
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				// Debounce rapid changes
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, func() {
					s.handleFileChange()
				})
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads credentials after an external change.
func (s *Service) handleFileChange() {
	creds, err := Load(s.filePath)
	if err != nil {
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	s.mu.Lock()
	changed := creds != s.creds
	s.creds = creds
	s.mu.Unlock()

	if changed {
		s.sendEvent(Event{Type: EventChanged, Creds: creds})
	}
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

package crashes

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Store is a bounded, insertion-ordered, append-only log of crash
// events, persisted as one JSON object per line. The in-memory slice is
// authoritative: persistence failures are logged and retried on the
// next append, never propagated to the monitoring path.
//
// Append and Snapshot are safe to call concurrently (poll cycle writes,
// reporting reads).
type Store struct {
	logger    *zap.Logger
	path      string
	maxEvents int

	lock   sync.Mutex
	events []*Event
}

func NewStore(rootLogger *zap.Logger, path string, maxEvents int) *Store {
	store := &Store{
		logger:    rootLogger.Named("event-store"),
		path:      path,
		maxEvents: maxEvents,
	}
	store.loadFromDisk()
	return store
}

// Append records the event, evicts the oldest entries beyond capacity,
// and rewrites the backing file. The write is atomic (temp file then
// rename) so a concurrent reader of the file never sees a torn record.
func (s *Store) Append(event *Event) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.events = append(s.events, event)
	if overflow := len(s.events) - s.maxEvents; overflow > 0 {
		s.events = append(s.events[:0:0], s.events[overflow:]...)
	}

	if err := s.persist(); err != nil {
		s.logger.Error("Failed to persist event store, in-memory state remains authoritative",
			zap.Error(err), zap.String("Path", s.path))
	}
}

// Snapshot returns a copy of the current history, oldest first.
func (s *Store) Snapshot() []*Event {
	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot := make([]*Event, len(s.events))
	copy(snapshot, s.events)
	return snapshot
}

func (s *Store) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.events)
}

func (s *Store) persist() error {
	var buffer bytes.Buffer

	for _, event := range s.events {
		line, err := json.Marshal(event)
		if err != nil {
			return errors.WithMessage(err, "marshal event")
		}
		buffer.Write(line)
		buffer.WriteByte('\n')
	}

	dir := filepath.Dir(s.path)
	tempFile, err := ioutil.TempFile(dir, ".crash-events-*")
	if err != nil {
		return errors.WithMessage(err, "create temp file")
	}

	if _, err := tempFile.Write(buffer.Bytes()); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return errors.WithMessage(err, "write temp file")
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return errors.WithMessage(err, "close temp file")
	}

	if err := os.Rename(tempFile.Name(), s.path); err != nil {
		os.Remove(tempFile.Name())
		return errors.WithMessage(err, "replace event store file")
	}

	return nil
}

// loadFromDisk reconstructs history from the backing file. A missing or
// unreadable file means empty history, never a startup failure.
// Malformed lines are skipped; unknown fields in valid lines are
// ignored for forward compatibility.
func (s *Store) loadFromDisk() {
	file, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to open event store file, starting with empty history",
				zap.Error(err), zap.String("Path", s.path))
		}
		return
	}
	defer file.Close()

	var (
		loaded  []*Event
		skipped int
	)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		event := &Event{}
		if err := json.Unmarshal(line, event); err != nil {
			skipped++
			continue
		}
		loaded = append(loaded, event)
	}

	if err := scanner.Err(); err != nil {
		s.logger.Warn("Failed to read event store file, starting with empty history",
			zap.Error(err), zap.String("Path", s.path))
		return
	}

	if skipped > 0 {
		s.logger.Warn("Skipped malformed event store lines", zap.Int("Skipped", skipped))
	}

	if overflow := len(loaded) - s.maxEvents; overflow > 0 {
		loaded = loaded[overflow:]
	}

	s.events = loaded
}

// Package logging provides structured logging for the farmio server.
//
// Every game and connection task logs through a single Logger built on
// logrus, and every entry is additionally fanned out to subscriber
// channels so the admin API can tail activity live without polling.
package logging

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Entry is one structured log line, also used as the admin-feed wire shape.
type Entry struct {
	Level     string                 `json:"level"`
	Game      string                 `json:"game,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// Logger wraps a logrus.Logger and broadcasts every entry to subscribers.
// mu is a pointer so every per-game child from WithGame shares the same
// lock over the same subscribers map, rather than each guarding the shared
// map with its own independent mutex.
type Logger struct {
	base        *logrus.Logger
	game        string
	mu          *sync.RWMutex
	subscribers map[chan *Entry]struct{}
}

// New creates a root logger. game is attached to every entry as a field
// and may be empty for process-wide (non-game) log lines.
func New(game string) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{
		base:        base,
		game:        game,
		mu:          &sync.RWMutex{},
		subscribers: make(map[chan *Entry]struct{}),
	}
}

// WithGame returns a child logger scoped to a different game name, sharing
// the same underlying logrus instance, lock, and subscriber set.
func (l *Logger) WithGame(game string) *Logger {
	return &Logger{base: l.base, game: game, subscribers: l.subscribers, mu: l.mu}
}

func (l *Logger) Infof(format string, args ...interface{}) { l.emit(logrus.InfoLevel, nil, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{}) { l.emit(logrus.WarnLevel, nil, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.emit(logrus.ErrorLevel, nil, format, args...)
}

// WithFields logs one line carrying structured fields (e.g. turn number,
// pending-action count) in addition to the formatted message.
func (l *Logger) WithFields(fields map[string]interface{}, format string, args ...interface{}) {
	l.emit(logrus.InfoLevel, fields, format, args...)
}

func (l *Logger) emit(level logrus.Level, fields map[string]interface{}, format string, args ...interface{}) {
	entry := l.base.WithField("game", l.game)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Logf(level, format, args...)

	rec := &Entry{
		Level:     level.String(),
		Game:      l.game,
		Message:   fmt.Sprintf(format, args...),
		Fields:    fields,
		CreatedAt: time.Now(),
	}

	l.mu.RLock()
	for ch := range l.subscribers {
		select {
		case ch <- rec:
		default: // drop if the subscriber is slow; never block the game task
		}
	}
	l.mu.RUnlock()
}

// Subscribe returns a channel fed with every future entry across all games
// sharing this logger's subscriber set. Call Unsubscribe to release it.
func (l *Logger) Subscribe() chan *Entry {
	ch := make(chan *Entry, 100)
	l.mu.Lock()
	l.subscribers[ch] = struct{}{}
	l.mu.Unlock()
	return ch
}

func (l *Logger) Unsubscribe(ch chan *Entry) {
	l.mu.Lock()
	delete(l.subscribers, ch)
	l.mu.Unlock()
	close(ch)
}

// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logger provides the node's subsystem-tagged leveled logger.
//
// It follows the same shape as the logger used throughout this
// lineage of nodes: one named logger per subsystem, a shared rotating
// file backend, and a global level that can be overridden per
// subsystem. Unlike the full backend this is modeled on, there is no
// separate "logs" engine package available to build on here, so the
// level filtering lives directly in this package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jrick/logrotate/rotator"
)

// Level is a logging verbosity level.
type Level int

// Supported levels, from most to least verbose.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelNames = map[Level]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

func levelFromString(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "critical":
		return LevelCritical, true
	}
	return LevelInfo, false
}

// Subsystem tags. Add an entry here when a new subsystem needs its
// own logger; Get registers the logger on first use.
const (
	TagLedger  = "LEDG"
	TagMempool = "MEMP"
	TagMining  = "MINE"
	TagPeer    = "PEER"
	TagServer  = "SRVR"
	TagClient  = "CLNT"
	TagCrypto  = "CRYP"
	TagStore   = "STOR"
	TagMain    = "MAIN"
)

// Logger is a single subsystem's leveled writer.
type Logger struct {
	tag   string
	mu    *sync.Mutex
	level *Level
	out   io.Writer
}

var (
	backendMu  sync.Mutex
	backendOut io.Writer = os.Stdout
	rotatorRef *rotator.Rotator

	subsystemsMu sync.Mutex
	subsystems   = map[string]*Logger{}
)

func newLogger(tag string) *Logger {
	level := LevelInfo
	return &Logger{tag: tag, mu: &backendMu, level: &level, out: writer{}}
}

// writer fans every write out to stdout and, once initialized, to the
// rotating log file.
type writer struct{}

func (writer) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	backendMu.Lock()
	r := rotatorRef
	backendMu.Unlock()
	if r != nil {
		r.Write(p)
	}
	return len(p), nil
}

// InitLogRotator opens a rotating log file at logFile. It must be
// called once during startup before subsystem loggers are used if
// file logging is desired; stdout logging works regardless.
func InitLogRotator(logFile string) error {
	dir, _ := filepath.Split(logFile)
	if dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	r, err := rotator.New(logFile, 10*1024*1024, false, 3)
	if err != nil {
		return err
	}
	backendMu.Lock()
	rotatorRef = r
	backendMu.Unlock()
	return nil
}

// Get returns (creating if necessary) the logger for a subsystem tag.
func Get(tag string) *Logger {
	subsystemsMu.Lock()
	defer subsystemsMu.Unlock()
	if l, ok := subsystems[tag]; ok {
		return l
	}
	l := newLogger(tag)
	subsystems[tag] = l
	return l
}

// SetLevel sets this logger's verbosity.
func (l *Logger) SetLevel(level Level) {
	backendMu.Lock()
	*l.level = level
	backendMu.Unlock()
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	backendMu.Lock()
	cur := *l.level
	backendMu.Unlock()
	if level < cur {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s [%s] %s\n", levelNames[level], l.tag, msg)
}

// Tracef logs at trace level.
func (l *Logger) Tracef(format string, args ...interface{}) { l.log(LevelTrace, format, args...) }

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Criticalf logs at critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.log(LevelCritical, format, args...)
}

// SetLevels sets the verbosity of every known subsystem logger, and
// is also used to validate the level string read at startup.
func SetLevels(levelStr string) error {
	level, ok := levelFromString(levelStr)
	if !ok {
		return fmt.Errorf("invalid log level %q", levelStr)
	}
	subsystemsMu.Lock()
	defer subsystemsMu.Unlock()
	for _, l := range subsystems {
		l.SetLevel(level)
	}
	return nil
}

// SupportedSubsystems returns the sorted list of subsystem tags that
// currently have a logger registered.
func SupportedSubsystems() []string {
	subsystemsMu.Lock()
	defer subsystemsMu.Unlock()
	tags := make([]string, 0, len(subsystems))
	for tag := range subsystems {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// init discards the standard library's default logger output so
// unrelated package-level log.Print calls don't escape unformatted.
func init() {
	log.SetOutput(io.Discard)
}

// Package shutdown persists dirty maps when the process is asked to stop.
package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mindmap-server/internal/pkg/logger"
	"mindmap-server/internal/registry"
)

const module = "Shutdown"

// ExitCode is used for every signal-triggered exit.
const ExitCode = 1

// Signals that trigger persistence. On Windows the runtime delivers ctrl-c
// and ctrl-break as os.Interrupt and ctrl-close, logoff and shutdown as
// SIGTERM.
var Signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

type Saver interface {
	SaveMindmap() registry.SaveReport
}

type Watcher struct {
	saver   Saver
	logger  logger.ILogger
	signals chan os.Signal
	exit    func(int)
	hooks   []func()
	once    sync.Once
}

type Option func(*Watcher)

// WithSignals replaces OS signal delivery with ch.
func WithSignals(ch chan os.Signal) Option {
	return func(w *Watcher) { w.signals = ch }
}

// WithExit replaces os.Exit.
func WithExit(exit func(int)) Option {
	return func(w *Watcher) { w.exit = exit }
}

// WithHook runs fn after the maps are saved and before exiting.
func WithHook(fn func()) Option {
	return func(w *Watcher) { w.hooks = append(w.hooks, fn) }
}

func NewWatcher(saver Saver, log logger.ILogger, opts ...Option) *Watcher {
	w := &Watcher{
		saver:  saver,
		logger: log,
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.signals == nil {
		w.signals = make(chan os.Signal, 1)
		signal.Notify(w.signals, Signals...)
	}
	return w
}

// Wait blocks until the first shutdown signal, then persists and exits.
func (w *Watcher) Wait() {
	sig := <-w.signals
	w.Shutdown(sig)
}

// Shutdown saves every dirty map once and exits with ExitCode. Later calls
// only exit.
func (w *Watcher) Shutdown(sig os.Signal) {
	w.once.Do(func() {
		w.logger.Info(module, "Received "+sig.String(), map[string]interface{}{"signal": sig.String()})
		report := w.saver.SaveMindmap()
		w.logger.Info(module, "Persisted mindmaps before exit", map[string]interface{}{"saved": report.Saved, "failed": report.Failed})
		for _, hook := range w.hooks {
			hook()
		}
	})
	w.exit(ExitCode)
}

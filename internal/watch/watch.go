// Package watch re-runs a callback when the files of a directory change.
package watch

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
)

// DefaultDebounce is the quiet period used when Options.Debounce is unset.
const DefaultDebounce = 500 * time.Millisecond

// Options configure a watch.
type Options struct {
	Dir      string
	Debounce time.Duration
	// Ignore lists base names whose changes never trigger a run, such as the
	// generated output file.
	Ignore []string
	Logger *slog.Logger
	// OnError receives watcher errors. The watch keeps running.
	OnError func(error)
}

// Func is called once per settled batch of changes with the changed base
// names, sorted.
type Func func(changed []string)

// Run watches opts.Dir (without recursion) until ctx is done. Calls to fn are
// sequential; changes arriving while fn runs start a new quiet period.
func Run(ctx context.Context, opts Options, fn Func) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to start file watcher")
	}
	defer w.Close()

	if err := w.Add(opts.Dir); err != nil {
		return errors.Wrap(err, "failed to watch "+opts.Dir)
	}

	return loop(ctx, w.Events, w.Errors, opts, fn)
}

func loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, opts Options, fn Func) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	ignore := make(map[string]bool, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignore[name] = true
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !relevant(ev, name, ignore) {
				continue
			}
			logger.Debug("watch.event", "file", name, "op", ev.Op.String())
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch.error", "error", err)
			if opts.OnError != nil {
				opts.OnError(err)
			}

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)

			logger.Info("watch.trigger", "changed", changed)
			fn(changed)
		}
	}
}

// relevant reports whether an event should schedule a run. Hidden files
// (including the temporary files written next to the output) and attribute
// changes are skipped.
func relevant(ev fsnotify.Event, name string, ignore map[string]bool) bool {
	if ignore[name] || strings.HasPrefix(name, ".") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// Package autohook attaches video information reporting to every video and
// file component created on a UI host. It subscribes to the host's lifecycle
// events, remembers which components were created inside each Blocks scope,
// and when the scope closes binds a callback which probes whatever file the
// user uploads.
package autohook

import (
	"context"
	"slices"
	"sync"

	"github.com/hbomb79/vidinfo/internal/probe"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/pkg/logger"
)

var log = logger.Get("VideoInfo")

// ExtensionName is the name the hook attaches to a host under.
const ExtensionName = "video-info"

type (
	prober interface {
		Probe(context.Context, string) (*probe.MediaInfo, error)
	}

	notifier interface {
		Notify(string)
	}

	// Summary is published to subscribers each time an upload has been
	// probed. Info is nil if the file could not be probed.
	Summary struct {
		Label string           `json:"label"`
		Path  string           `json:"path"`
		Line  string           `json:"summary"`
		Info  *probe.MediaInfo `json:"info"`
	}

	// Hook owns the probing and notification used by every callback it
	// binds. A single Hook may be installed on many hosts, but only once
	// per host.
	Hook struct {
		sync.Mutex
		prober      prober
		notifier    notifier
		subscribers []func(Summary)
		exists      func(string) bool
	}
)

var (
	loadMu sync.Mutex
	loaded *Hook
)

// Load returns the process-wide Hook, constructing it on the first call. Later
// calls are no-ops which return the original Hook, ignoring the arguments.
func Load(prober prober, notifier notifier) *Hook {
	loadMu.Lock()
	defer loadMu.Unlock()

	if loaded != nil {
		log.Emit(logger.INFO, "already loaded (process guard), skip.\n")
		return loaded
	}

	loaded = New(prober, notifier)
	log.Emit(logger.SUCCESS, "Video info autohook loaded\n")
	return loaded
}

func resetLoadGuard() {
	loadMu.Lock()
	defer loadMu.Unlock()

	loaded = nil
}

// New constructs a Hook outside of the process-wide guard.
func New(prober prober, notifier notifier) *Hook {
	return &Hook{
		prober:   prober,
		notifier: notifier,
		exists:   pathExists,
	}
}

// Subscribe registers fn to receive every Summary produced by the hook.
func (hook *Hook) Subscribe(fn func(Summary)) {
	hook.Lock()
	defer hook.Unlock()

	hook.subscribers = append(hook.subscribers, fn)
}

// Install subscribes the hook to the lifecycle events of the host. It returns
// false, and does nothing, if the host is nil or already has this extension.
func (hook *Hook) Install(host *ui.Host) bool {
	if host == nil {
		log.Emit(logger.WARNING, "autohook skipped: no UI host available\n")
		return false
	}

	if !host.Attach(ExtensionName) {
		log.Emit(logger.INFO, "already installed (host guard), skip re-patch.\n")
		return false
	}

	newInstallation(hook, host).subscribe()
	log.Emit(logger.SUCCESS, "autohook installed (Blocks enter/exit).\n")
	return true
}

// Callback returns the handler bound to components with the label provided.
// Panics raised while handling a value are recovered and logged.
func (hook *Hook) Callback(label string) ui.Handler {
	return func(value ui.Value) {
		defer func() {
			if r := recover(); r != nil {
				log.Emit(logger.ERROR, "[%s] callback error: %v\n", label, r)
			}
		}()

		hook.handle(label, value)
	}
}

func (hook *Hook) handle(label string, value ui.Value) {
	path, ok := ResolvePath(value, hook.exists)
	if !ok {
		log.Emit(logger.INFO, "[%s] no file\n", label)
		return
	}

	// Probe failures are logged by the prober and reported as "cannot read info"
	info, _ := hook.prober.Probe(context.Background(), path)
	line := probe.Format(label, info)
	log.Emit(logger.INFO, "%s\n", line)

	if hook.notifier != nil {
		hook.notifier.Notify(line)
	}

	hook.publish(Summary{Label: label, Path: path, Line: line, Info: info})
}

func (hook *Hook) publish(summary Summary) {
	hook.Lock()
	subscribers := slices.Clone(hook.subscribers)
	hook.Unlock()

	for _, fn := range subscribers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Emit(logger.ERROR, "summary subscriber panicked: %v\n", r)
				}
			}()

			fn(summary)
		}()
	}
}

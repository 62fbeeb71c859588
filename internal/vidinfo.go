package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hbomb79/vidinfo/internal/api"
	"github.com/hbomb79/vidinfo/internal/autohook"
	"github.com/hbomb79/vidinfo/internal/event"
	"github.com/hbomb79/vidinfo/internal/probe"
	"github.com/hbomb79/vidinfo/internal/toast"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/internal/watch"
	"github.com/hbomb79/vidinfo/pkg/logger"
)

var log = logger.Get("Core")

type RunnableService interface {
	Run(context.Context) error
}

// App owns the UI host, with the video info autohook installed, and the
// adapters which drive the host: the CLI, the directory watcher and the
// HTTP gateway.
type App struct {
	config   Config
	eventBus event.EventCoordinator
	host     *ui.Host
	hook     *autohook.Hook

	collectMu sync.Mutex
	collected []autohook.Summary
}

// New constructs the app. The autohook is loaded and installed on the host
// immediately, so every component created afterwards is bound.
func New(config Config) *App {
	log.Emit(logger.DEBUG, "Bootstrapping vidinfo using config: %#v\n", config)

	prober := probe.New(config.Probe)
	log.Emit(logger.INFO, "Using ffprobe at %s\n", prober.BinPath())

	eventBus := event.New()
	app := &App{
		config:   config,
		eventBus: eventBus,
		host:     ui.NewHost(eventBus),
		hook:     autohook.Load(prober, toast.New(config.Toast)),
	}

	app.hook.Install(app.host)
	app.hook.Subscribe(app.collect)

	return app
}

func (app *App) Host() *ui.Host { return app.host }

func (app *App) Hook() *autohook.Hook { return app.hook }

// ProbeFiles uploads each file to its own video component and returns the
// summaries produced for them, in order. Files which do not exist produce
// no summary.
func (app *App) ProbeFiles(paths ...string) []autohook.Summary {
	app.collectMu.Lock()
	app.collected = make([]autohook.Summary, 0, len(paths))
	app.collectMu.Unlock()

	for _, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		var comp *ui.Component
		if err := app.host.NewBlocks().Scope(func(*ui.Blocks) {
			comp = app.host.Video(filepath.Base(path))
		}); err != nil {
			log.Emit(logger.ERROR, "Failed to create component for %s: %v\n", path, err)
			continue
		}

		comp.ReceiveUpload(ui.FileRecord(filepath.Base(path), path))
	}

	app.collectMu.Lock()
	defer app.collectMu.Unlock()

	out := app.collected
	app.collected = nil
	return out
}

// Watch feeds new video files from the directory to the autohook until the
// context is cancelled. An empty dir uses the configured watch path.
func (app *App) Watch(ctx context.Context, dir string) error {
	config := app.config.Watch
	if dir != "" {
		config.Path = dir
	}

	service, err := watch.New(config, app.host)
	if err != nil {
		return err
	}

	return app.runServices(ctx, map[string]RunnableService{"watch-service": service})
}

// Serve runs the HTTP gateway, with a default video and file component to
// upload to. If a watch path is configured the watch service runs as well.
func (app *App) Serve(ctx context.Context) error {
	if err := app.host.NewBlocks().Scope(func(*ui.Blocks) {
		app.host.Video("Video")
		app.host.File("File")
	}); err != nil {
		return err
	}

	services := map[string]RunnableService{}
	if app.config.Watch.Path != "" {
		service, err := watch.New(app.config.Watch, app.host)
		if err != nil {
			return err
		}

		services["watch-service"] = service
	}
	services["rest-gateway"] = api.NewRestGateway(&app.config.RestConfig, app.host, app.hook)

	return app.runServices(ctx, services)
}

// runServices runs each service in its own goroutine until the context is
// cancelled or any of them crashes, in which case the others are stopped
// and the first crash is returned.
func (app *App) runServices(parent context.Context, services map[string]RunnableService) error {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	crashHandler := func(label string, err error) {
		log.Emit(logger.FATAL, "Service crash (%s)! %s\n", label, err.Error())
		cancel(fmt.Errorf("%s: %w", label, err))
	}

	wg := &sync.WaitGroup{}
	for label, service := range services {
		spawnAsyncService(ctx, wg, service, label, crashHandler)
	}
	log.Emit(logger.SUCCESS, "vidinfo services spawned!\n")

	wg.Wait()
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}

	return nil
}

func (app *App) collect(summary autohook.Summary) {
	app.collectMu.Lock()
	defer app.collectMu.Unlock()

	if app.collected != nil {
		app.collected = append(app.collected, summary)
	}
}

// spawnAsyncService will run the provided service as it's own
// go-routine, ensuring that the service waitgroup is updated correctly
func spawnAsyncService(ctx context.Context, wg *sync.WaitGroup, service RunnableService, serviceLabel string, crashHandler func(string, error)) {
	log.Emit(logger.NEW, "Spawning %s\n", serviceLabel)
	wg.Add(1)

	go func(wg *sync.WaitGroup, label string, crash func(string, error)) {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				crash(label, fmt.Errorf("panic %v", r))
			}
		}()

		if err := service.Run(ctx); err != nil {
			crash(label, err)
		}
	}(wg, serviceLabel, crashHandler)
}

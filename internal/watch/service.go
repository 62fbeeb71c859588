package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/pkg/logger"
	"github.com/hbomb79/vidinfo/pkg/worker"
	"github.com/mitchellh/go-homedir"
	"github.com/rjeczalik/notify"
)

var log = logger.Get("WatchServ")

// Service watches a directory and feeds every new video file to a
// multi-file component on the host, exactly as if a user had dropped the
// file on to it. Extensions bound to the component (such as the video info
// autohook) therefore see watched files the same way as uploads.
type Service struct {
	*sync.Mutex
	config     Config
	root       string
	component  *ui.Component
	pending    []string
	queued     map[string]struct{}
	holdTimers map[string]*time.Timer
	workerPool *worker.WorkerPool
}

// New creates a watch Service for the directory in the config, which must
// exist. The component the service drives is created immediately, inside
// its own Blocks scope, so extensions installed on the host beforehand
// are able to bind to it.
func New(config Config, host *ui.Host) (*Service, error) {
	root, err := homedir.Expand(strings.TrimSpace(config.Path))
	if err != nil {
		return nil, fmt.Errorf("watch path '%s' could not be expanded: %w", config.Path, err)
	}
	if root == "" {
		return nil, errors.New("watch path is not configured")
	}

	if info, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("watch path '%s' could not be accessed: %w", root, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("watch path '%s' is not a directory", root)
	}

	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	service := &Service{
		Mutex:      &sync.Mutex{},
		config:     config,
		root:       root,
		queued:     make(map[string]struct{}),
		holdTimers: make(map[string]*time.Timer),
		workerPool: worker.NewWorkerPool(),
	}

	if err := host.NewBlocks().Scope(func(*ui.Blocks) {
		service.component = host.Files(filepath.Base(root))
	}); err != nil {
		return nil, err
	}

	workers := max(config.Workers, 1)
	for i := 0; i < workers; i++ {
		label := fmt.Sprintf("watch-probe-%d", i)
		if err := service.workerPool.PushWorker(worker.NewWorker(label, worker.TaskFunc(service.work))); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// Component returns the multi-file component this service feeds.
func (service *Service) Component() *ui.Component {
	return service.component
}

// Run watches the directory until the context is cancelled.
func (service *Service) Run(ctx context.Context) error {
	events := make(chan notify.EventInfo, 64)
	if err := notify.Watch(filepath.Join(service.root, "..."), events, notify.Create, notify.Write, notify.Rename); err != nil {
		return fmt.Errorf("failed to watch '%s': %w", service.root, err)
	}
	defer notify.Stop(events)

	if err := service.workerPool.Start(); err != nil {
		return err
	}
	defer service.workerPool.Close()
	defer service.clearAllHoldTimers()

	log.Emit(logger.SUCCESS, "Watching %s for new video files\n", service.root)
	if service.config.ScanExisting {
		service.scanExisting()
	}

	for {
		select {
		case ev := <-events:
			service.hold(ev.Path())
		case <-ctx.Done():
			log.Emit(logger.STOP, "Stopped watching %s\n", service.root)
			return nil
		}
	}
}

// Enqueue queues the file at path to be fed to the component. It returns
// false if the path is not an accepted regular file, or is already queued.
func (service *Service) Enqueue(path string) bool {
	if !service.accepts(path) {
		return false
	}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return false
	}

	service.Lock()
	if _, ok := service.queued[path]; ok {
		service.Unlock()
		return false
	}
	service.queued[path] = struct{}{}
	service.pending = append(service.pending, path)
	service.Unlock()

	log.Emit(logger.NEW, "Queued %s\n", path)
	if err := service.workerPool.WakeupWorkers(); err != nil {
		log.Emit(logger.DEBUG, "Queued %s before workers started: %v\n", path, err)
	}

	return true
}

// hold (re)starts the settle timer for the path; the file is queued only
// once no further events arrive for it within the settle duration.
func (service *Service) hold(path string) {
	if !service.accepts(path) {
		return
	}

	service.Lock()
	defer service.Unlock()

	if timer, ok := service.holdTimers[path]; ok {
		timer.Reset(service.config.SettleDuration())
		return
	}

	service.holdTimers[path] = time.AfterFunc(service.config.SettleDuration(), func() {
		service.Lock()
		delete(service.holdTimers, path)
		service.Unlock()

		service.Enqueue(path)
	})
}

func (service *Service) clearAllHoldTimers() {
	service.Lock()
	defer service.Unlock()

	for path, timer := range service.holdTimers {
		timer.Stop()
		delete(service.holdTimers, path)
	}
}

func (service *Service) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range service.config.Extensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}

		if ext == allowed {
			return true
		}
	}

	return false
}

func (service *Service) scanExisting() {
	err := filepath.WalkDir(service.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Emit(logger.WARNING, "Skipping %s during scan: %v\n", path, err)
			return nil
		}

		if d.Type().IsRegular() {
			service.Enqueue(path)
		}

		return nil
	})
	if err != nil {
		log.Emit(logger.ERROR, "Scan of %s failed: %v\n", service.root, err)
	}
}

// work is the task run by each worker in the pool. It claims queued paths
// and feeds them to the component, sleeping when the queue is empty.
func (service *Service) work(w worker.Worker) error {
	for {
		path, ok := service.claim()
		if !ok {
			if !w.Sleep() {
				return nil
			}

			continue
		}

		log.Emit(logger.DEBUG, "%s feeding %s to component %s\n", w.Label(), path, service.component.ID())
		service.component.SetValue(ui.Paths(path))
		service.release(path)
	}
}

func (service *Service) claim() (string, bool) {
	service.Lock()
	defer service.Unlock()

	if len(service.pending) == 0 {
		return "", false
	}

	path := service.pending[0]
	service.pending = service.pending[1:]
	return path, true
}

func (service *Service) release(path string) {
	service.Lock()
	defer service.Unlock()

	delete(service.queued, path)
}

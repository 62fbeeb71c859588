package autohook

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hbomb79/vidinfo/internal/event"
	"github.com/hbomb79/vidinfo/internal/ui"
	"github.com/hbomb79/vidinfo/pkg/logger"
)

// installation is a Hook attached to a single host. It tracks the components
// created inside each open Blocks scope: a list is pushed when a scope
// opens, appended to as components are created, and popped and bound when
// the scope closes.
type installation struct {
	sync.Mutex
	hook   *Hook
	host   *ui.Host
	lookup func(uuid.UUID) (binder, bool)
	stack  [][]uuid.UUID
}

// binder is the part of a component the hook binds its callback through.
type binder interface {
	Kind() ui.Kind
	DisplayLabel() string
	Upload(ui.Handler) error
	Change(ui.Handler) error
}

func newInstallation(hook *Hook, host *ui.Host) *installation {
	in := &installation{hook: hook, host: host}
	in.lookup = in.component

	return in
}

func (in *installation) component(id uuid.UUID) (binder, bool) {
	comp, ok := in.host.Component(id)
	if !ok {
		return nil, false
	}

	return comp, true
}

func (in *installation) subscribe() {
	events := in.host.Events()
	events.RegisterHandlerFunction(event.BLOCKS_ENTER, in.recovered(in.onBlocksEnter))
	events.RegisterHandlerFunction(event.COMPONENT_CREATED, in.recovered(in.onComponentCreated))
	events.RegisterHandlerFunction(event.BLOCKS_EXIT, in.recovered(in.onBlocksExit))
}

// recovered wraps a lifecycle handler so that nothing it does can
// propagate into the host.
func (in *installation) recovered(fn event.HandlerMethod) event.HandlerMethod {
	return func(ev event.Event, payload event.Payload) {
		defer func() {
			if r := recover(); r != nil {
				log.Emit(logger.ERROR, "%s handler error: %v\n", ev, r)
			}
		}()

		fn(ev, payload)
	}
}

func (in *installation) onBlocksEnter(event.Event, event.Payload) {
	in.Lock()
	defer in.Unlock()

	in.stack = append(in.stack, make([]uuid.UUID, 0))
}

func (in *installation) onComponentCreated(_ event.Event, payload event.Payload) {
	id, ok := payload.(uuid.UUID)
	if !ok {
		return
	}

	in.Lock()
	defer in.Unlock()

	if n := len(in.stack); n > 0 {
		in.stack[n-1] = append(in.stack[n-1], id)
	}
}

func (in *installation) onBlocksExit(event.Event, event.Payload) {
	in.Lock()
	var items []uuid.UUID
	if n := len(in.stack); n > 0 {
		items = in.stack[n-1]
		in.stack = in.stack[:n-1]
	}
	in.Unlock()

	for _, id := range items {
		in.bindComponent(id)
	}
}

func isMediaUpload(kind ui.Kind) bool {
	switch kind {
	case ui.VideoKind, ui.FileKind, ui.FilesKind:
		return true
	}

	return false
}

// bindComponent binds the hook's callback to the component's upload event,
// falling back to its change event. A failure here is logged and does not
// affect the binding of any other component.
func (in *installation) bindComponent(id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			log.Emit(logger.ERROR, "[bind][err] %v\n", r)
		}
	}()

	comp, ok := in.lookup(id)
	if !ok {
		log.Emit(logger.WARNING, "[bind] component %s is not known to the host\n", id)
		return
	}
	if !isMediaUpload(comp.Kind()) {
		return
	}

	label := comp.DisplayLabel()
	callback := in.hook.Callback(label)

	uploadErr := safeBind(comp.Upload, callback)
	bound := uploadErr == nil
	if !bound {
		log.Emit(logger.DEBUG, "[bind][%s] upload fail: %v\n", label, uploadErr)
	}

	var changeErr error
	if !bound {
		changeErr = safeBind(comp.Change, callback)
		bound = changeErr == nil
		if !bound {
			log.Emit(logger.ERROR, "[bind][%s] change fail: %v\n", label, changeErr)
		}
	}

	if !bound && errors.Is(uploadErr, ui.ErrTriggerUnsupported) && errors.Is(changeErr, ui.ErrTriggerUnsupported) {
		log.Emit(logger.WARNING, "[bind][%s] host API mismatch: %s supports neither upload nor change\n", label, comp.Kind())
	}

	log.Emit(logger.INFO, "[bind][%s] bound=%v\n", label, bound)
}

func safeBind(bind func(ui.Handler) error, handler ui.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bind panicked: %v", r)
		}
	}()

	return bind(handler)
}

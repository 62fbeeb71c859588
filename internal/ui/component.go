package ui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type (
	Kind    string
	Trigger string
	Handler func(Value)
)

const (
	VideoKind   Kind = "Video"
	FileKind    Kind = "File"
	FilesKind   Kind = "Files"
	ImageKind   Kind = "Image"
	TextboxKind Kind = "Textbox"
	ButtonKind  Kind = "Button"

	UploadTrigger Trigger = "upload"
	ChangeTrigger Trigger = "change"
	ClickTrigger  Trigger = "click"
)

var ErrTriggerUnsupported = errors.New("trigger not supported by component")

// Files only exposes 'change'; uploads to it surface as a change of the
// whole sequence.
var kindTriggers = map[Kind][]Trigger{
	VideoKind:   {UploadTrigger, ChangeTrigger},
	FileKind:    {UploadTrigger, ChangeTrigger},
	FilesKind:   {ChangeTrigger},
	ImageKind:   {UploadTrigger, ChangeTrigger},
	TextboxKind: {ChangeTrigger},
	ButtonKind:  {ClickTrigger},
}

// Component is a single widget owned by a Host. Handlers bound to
// a component are invoked synchronously, in bind order, on the
// goroutine delivering the value.
type Component struct {
	sync.Mutex
	id       uuid.UUID
	seq      uint64
	kind     Kind
	label    string
	value    Value
	handlers map[Trigger][]Handler
}

func newComponent(seq uint64, kind Kind, label string) *Component {
	return &Component{
		id:       uuid.New(),
		seq:      seq,
		kind:     kind,
		label:    label,
		handlers: make(map[Trigger][]Handler),
	}
}

func (c *Component) ID() uuid.UUID { return c.id }
func (c *Component) Kind() Kind    { return c.kind }

// Label returns the explicit label given at construction, which
// may be empty.
func (c *Component) Label() string { return c.label }

// DisplayLabel returns the explicit label if set, otherwise the kind
// of the component (e.g. "Video").
func (c *Component) DisplayLabel() string {
	if c.label != "" {
		return c.label
	}

	return string(c.kind)
}

func (c *Component) Value() Value {
	c.Lock()
	defer c.Unlock()

	return c.value
}

// Supports returns true if handlers can be bound to the trigger
// provided for this kind of component.
func (c *Component) Supports(trigger Trigger) bool {
	for _, t := range kindTriggers[c.kind] {
		if t == trigger {
			return true
		}
	}

	return false
}

// Triggers returns the triggers this component supports.
func (c *Component) Triggers() []Trigger {
	return append([]Trigger(nil), kindTriggers[c.kind]...)
}

// Upload binds fn to the component's upload event.
func (c *Component) Upload(fn Handler) error { return c.on(UploadTrigger, fn) }

// Change binds fn to the component's change event.
func (c *Component) Change(fn Handler) error { return c.on(ChangeTrigger, fn) }

func (c *Component) on(trigger Trigger, fn Handler) error {
	if fn == nil {
		return errors.New("cannot bind nil handler")
	}
	if !c.Supports(trigger) {
		return fmt.Errorf("%w: %s has no '%s' event", ErrTriggerUnsupported, c.kind, trigger)
	}

	c.Lock()
	defer c.Unlock()

	c.handlers[trigger] = append(c.handlers[trigger], fn)
	return nil
}

// HandlerCount returns the number of handlers bound to the trigger.
func (c *Component) HandlerCount(trigger Trigger) int {
	c.Lock()
	defer c.Unlock()

	return len(c.handlers[trigger])
}

// SetValue replaces the value of the component and fires
// its change handlers.
func (c *Component) SetValue(v Value) {
	c.Lock()
	c.value = v
	c.Unlock()

	c.fire(ChangeTrigger, v)
}

// ReceiveUpload is called by a host adapter when the user has uploaded
// content to this component. Upload handlers fire first, followed by
// the change handlers as the value of the component has changed.
func (c *Component) ReceiveUpload(v Value) {
	c.Lock()
	c.value = v
	c.Unlock()

	c.fire(UploadTrigger, v)
	c.fire(ChangeTrigger, v)
}

func (c *Component) fire(trigger Trigger, v Value) {
	c.Lock()
	handlers := append([]Handler(nil), c.handlers[trigger]...)
	c.Unlock()

	for _, h := range handlers {
		h(v)
	}
}

func (c *Component) String() string {
	return fmt.Sprintf("{%s id=%s label=%q}", c.kind, c.id, c.label)
}

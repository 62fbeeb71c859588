package ui

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hbomb79/vidinfo/internal/event"
	"github.com/hbomb79/vidinfo/pkg/logger"
	tsync "github.com/hbomb79/vidinfo/pkg/sync"
)

var log = logger.Get("UI")

var (
	ErrBlocksAlreadyOpen  = errors.New("blocks is already open")
	ErrBlocksNotInnermost = errors.New("blocks is not the innermost open scope")
)

type (
	// Host owns every component and container created through it. Rather
	// than allowing extensions to wrap its constructors, it publishes its
	// lifecycle on an event bus:
	//   - event.COMPONENT_CREATED after a component is constructed
	//   - event.BLOCKS_ENTER after a Blocks scope opens
	//   - event.BLOCKS_EXIT after a Blocks scope closes, before Exit returns
	// All lifecycle events are dispatched synchronously.
	Host struct {
		sync.Mutex
		bus        event.EventCoordinator
		components tsync.TypedSyncMap[uuid.UUID, *Component]
		blocks     tsync.TypedSyncMap[uuid.UUID, *Blocks]
		open       []*Blocks
		extensions map[string]struct{}
		seq        uint64
	}

	// Blocks is a layout scope; components created while a Blocks is
	// the innermost open scope become its children.
	Blocks struct {
		id       uuid.UUID
		host     *Host
		children []*Component
		open     bool
	}
)

func NewHost(bus event.EventCoordinator) *Host {
	return &Host{
		bus:        bus,
		extensions: make(map[string]struct{}),
	}
}

// Events returns the handler side of the host's lifecycle bus
// so that extensions can subscribe.
func (host *Host) Events() event.EventHandler {
	return host.bus
}

// Attach records that the named extension has been installed on this host. It
// returns false if an extension with that name has already attached, which
// callers use to guarantee they subscribe at most once.
func (host *Host) Attach(name string) bool {
	host.Lock()
	defer host.Unlock()

	if _, ok := host.extensions[name]; ok {
		return false
	}

	host.extensions[name] = struct{}{}
	return true
}

// NewComponent constructs a component of the kind given. If a Blocks scope is
// open the component becomes a child of the innermost one.
func (host *Host) NewComponent(kind Kind, label string) *Component {
	host.Lock()
	host.seq++
	comp := newComponent(host.seq, kind, label)
	if n := len(host.open); n > 0 {
		parent := host.open[n-1]
		parent.children = append(parent.children, comp)
	}
	host.Unlock()

	host.components.Store(comp.id, comp)
	log.Emit(logger.DEBUG, "Created component %s\n", comp)

	host.bus.Dispatch(event.COMPONENT_CREATED, comp.id)
	return comp
}

func (host *Host) Video(label string) *Component   { return host.NewComponent(VideoKind, label) }
func (host *Host) File(label string) *Component    { return host.NewComponent(FileKind, label) }
func (host *Host) Files(label string) *Component   { return host.NewComponent(FilesKind, label) }
func (host *Host) Textbox(label string) *Component { return host.NewComponent(TextboxKind, label) }

// Component returns the component with the ID provided.
func (host *Host) Component(id uuid.UUID) (*Component, bool) {
	return host.components.Load(id)
}

// Components returns all components in creation order.
func (host *Host) Components() []*Component {
	out := make([]*Component, 0)
	host.components.Range(func(_ uuid.UUID, c *Component) bool {
		out = append(out, c)
		return true
	})

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// NewBlocks constructs a closed Blocks scope.
func (host *Host) NewBlocks() *Blocks {
	b := &Blocks{id: uuid.New(), host: host}
	host.blocks.Store(b.id, b)

	return b
}

// Blocks returns the Blocks with the ID provided.
func (host *Host) Blocks(id uuid.UUID) (*Blocks, bool) {
	return host.blocks.Load(id)
}

func (b *Blocks) ID() uuid.UUID { return b.id }

// Children returns the components created while this scope was innermost.
func (b *Blocks) Children() []*Component {
	b.host.Lock()
	defer b.host.Unlock()

	return append([]*Component(nil), b.children...)
}

// Enter opens the scope.
func (b *Blocks) Enter() error {
	b.host.Lock()
	if b.open {
		b.host.Unlock()
		return ErrBlocksAlreadyOpen
	}

	b.open = true
	b.host.open = append(b.host.open, b)
	b.host.Unlock()

	b.host.bus.Dispatch(event.BLOCKS_ENTER, b.id)
	return nil
}

// Exit closes the scope, which must be the innermost open scope.
func (b *Blocks) Exit() error {
	b.host.Lock()
	n := len(b.host.open)
	if !b.open || n == 0 || b.host.open[n-1] != b {
		b.host.Unlock()
		return ErrBlocksNotInnermost
	}

	b.open = false
	b.host.open = b.host.open[:n-1]
	b.host.Unlock()

	b.host.bus.Dispatch(event.BLOCKS_EXIT, b.id)
	return nil
}

// Scope opens the Blocks, runs fn and closes it again. The exit is deferred
// so the scope is closed even if fn panics.
func (b *Blocks) Scope(fn func(*Blocks)) error {
	if err := b.Enter(); err != nil {
		return err
	}
	defer func() {
		if err := b.Exit(); err != nil {
			log.Emit(logger.ERROR, "Failed to close blocks %s: %v\n", b.id, err)
		}
	}()

	fn(b)
	return nil
}

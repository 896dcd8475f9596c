package alert

import "sync"

// InputBus is an in-process InputSource. Front ends forward their user
// interactions through Emit.
type InputBus struct {
	mu        sync.Mutex
	nextID    int
	listeners map[InputKind]map[int]func()
}

func NewInputBus() *InputBus {
	return &InputBus{listeners: make(map[InputKind]map[int]func())}
}

func (b *InputBus) Subscribe(kind InputKind, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[int]func())
	}
	b.listeners[kind][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners[kind], id)
	}
}

// Emit calls every listener registered for kind.
func (b *InputBus) Emit(kind InputKind) {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.listeners[kind]))
	for _, fn := range b.listeners[kind] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Listeners reports how many listeners are registered for kind.
func (b *InputBus) Listeners(kind InputKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[kind])
}

var _ InputSource = (*InputBus)(nil)

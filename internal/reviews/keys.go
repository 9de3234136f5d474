package reviews

import "sync"

// Key is a navigation key name as reported by the browser.
type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
)

// KeyEvents fans key presses out to subscribers. Every Subscribe must be
// paired with a call to the returned unsubscribe func.
type KeyEvents struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Key)
}

// NewKeyEvents creates an empty bus.
func NewKeyEvents() *KeyEvents {
	return &KeyEvents{handlers: make(map[int]func(Key))}
}

// Subscribe registers fn and returns the func that removes it. Calling the
// returned func more than once is harmless.
func (b *KeyEvents) Subscribe(fn func(Key)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers k to every current subscriber.
func (b *KeyEvents) Publish(k Key) {
	b.mu.RLock()
	handlers := make([]func(Key), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(k)
	}
}

// Subscribers returns the number of registered handlers.
func (b *KeyEvents) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

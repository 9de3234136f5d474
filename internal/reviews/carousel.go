package reviews

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrEmpty is returned when a carousel or catalog has no reviews.
	ErrEmpty = errors.New("reviews: review set is empty")
	// ErrIndexOutOfRange is returned by JumpTo for an index outside the set.
	ErrIndexOutOfRange = errors.New("reviews: index out of range")
)

// DefaultAutoplayInterval is the pause between automatic advances.
const DefaultAutoplayInterval = 5 * time.Second

// Move causes reported to watchers and observers.
const (
	CausePrevious = "previous"
	CauseNext     = "next"
	CauseJump     = "jump"
	CauseTick     = "tick"
)

// Move describes a cursor change.
type Move struct {
	Index  int    `json:"index"`
	Review Review `json:"review"`
	Cause  string `json:"cause"`
}

// MoveObserver is told about every cursor change, typically a metrics collector.
type MoveObserver interface {
	ObserveCarouselMove(cause string)
}

// CarouselOption customises a Carousel.
type CarouselOption func(*Carousel)

// WithObserver reports moves to o.
func WithObserver(o MoveObserver) CarouselOption {
	return func(c *Carousel) { c.observer = o }
}

// Carousel is a cursor over a fixed, ordered review list with wrap-around.
type Carousel struct {
	reviews  []Review
	observer MoveObserver

	mu       sync.Mutex
	index    int
	autoplay bool
	watchers map[int]func(Move)
	nextID   int

	stopAutoplay func()
	unbindKeys   func()
	closed       bool
}

// NewCarousel starts at index 0 with autoplay off.
func NewCarousel(set []Review, opts ...CarouselOption) (*Carousel, error) {
	if len(set) == 0 {
		return nil, ErrEmpty
	}
	c := &Carousel{
		reviews:  append([]Review(nil), set...),
		watchers: make(map[int]func(Move)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Len returns the number of reviews.
func (c *Carousel) Len() int { return len(c.reviews) }

// Index returns the active index.
func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Active returns the review at the active index.
func (c *Carousel) Active() Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reviews[c.index]
}

// Autoplay reports whether ticks advance the cursor.
func (c *Carousel) Autoplay() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoplay
}

// SetAutoplay enables or disables tick advances without starting a timer.
func (c *Carousel) SetAutoplay(on bool) {
	c.mu.Lock()
	c.autoplay = on
	c.mu.Unlock()
}

// Previous moves back one review, wrapping from the first to the last.
func (c *Carousel) Previous() int {
	return c.move(CausePrevious, func(i, last int) int {
		if i == 0 {
			return last
		}
		return i - 1
	})
}

// Next moves forward one review, wrapping from the last to the first.
func (c *Carousel) Next() int {
	return c.move(CauseNext, next)
}

// Tick advances like Next while autoplay is on and is a no-op otherwise.
func (c *Carousel) Tick() int {
	c.mu.Lock()
	on := c.autoplay
	idx := c.index
	c.mu.Unlock()
	if !on {
		return idx
	}
	return c.move(CauseTick, next)
}

// JumpTo sets the cursor to i, which must satisfy 0 <= i < Len().
func (c *Carousel) JumpTo(i int) error {
	if i < 0 || i >= len(c.reviews) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, i, len(c.reviews))
	}
	c.move(CauseJump, func(int, int) int { return i })
	return nil
}

func next(i, last int) int {
	if i == last {
		return 0
	}
	return i + 1
}

func (c *Carousel) move(cause string, step func(i, last int) int) int {
	c.mu.Lock()
	c.index = step(c.index, len(c.reviews)-1)
	m := Move{Index: c.index, Review: c.reviews[c.index], Cause: cause}
	watchers := make([]func(Move), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	if c.observer != nil {
		c.observer.ObserveCarouselMove(cause)
	}
	for _, fn := range watchers {
		fn(m)
	}
	return m.Index
}

// Watch calls fn after every move until the returned func is called.
func (c *Carousel) Watch(fn func(Move)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.watchers, id)
			c.mu.Unlock()
		})
	}
}

// BindKeys subscribes to bus so ArrowLeft and ArrowRight move the cursor.
// The returned func unsubscribes; Close also does. After Close it is a no-op.
func (c *Carousel) BindKeys(bus *KeyEvents) (unbind func()) {
	unsubscribe := bus.Subscribe(func(k Key) {
		switch k {
		case KeyArrowLeft:
			c.Previous()
		case KeyArrowRight:
			c.Next()
		}
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		unsubscribe()
		return func() {}
	}
	prev := c.unbindKeys
	c.unbindKeys = unsubscribe
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
	return unsubscribe
}

// StartAutoplay turns autoplay on and ticks every interval until ctx is done
// or the returned stop func is called. Stopping turns autoplay off.
func (c *Carousel) StartAutoplay(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultAutoplayInterval
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	prev := c.stopAutoplay
	c.stopAutoplay = nil
	c.mu.Unlock()
	if prev != nil {
		prev()
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.SetAutoplay(true)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			cancel()
			<-done
			c.SetAutoplay(false)
		})
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		stop()
		return func() {}
	}
	c.stopAutoplay = stop
	c.mu.Unlock()
	return stop
}

// Close stops autoplay, unbinds keys and drops watchers.
func (c *Carousel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	stop, unbind := c.stopAutoplay, c.unbindKeys
	c.stopAutoplay, c.unbindKeys = nil, nil
	c.watchers = make(map[int]func(Move))
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	if unbind != nil {
		unbind()
	}
}

package screen

import (
	"context"
	"log/slog"
	"sync"

	"reportit/backend/internal/metrics"
)

// Deps are the ambient collaborators shared by all screens. Both fields may
// be nil.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Fetch is one asynchronous repository call.
type Fetch[T any] func(ctx context.Context) (T, error)

// Screen owns the state of one screen and the fetches running on its
// behalf. Fetches run with the screen's context and are cancelled by Close.
// Overlapping fetches are not sequenced; whichever finishes last sets the
// state.
type Screen[T any] struct {
	name    string
	message string
	logger  *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State[T]
	cause  error
	subs   []chan State[T]
	closed bool
}

// New creates a screen in the Loading state. message is reported on every
// failed fetch.
func New[T any](parent context.Context, name, message string, deps Deps) *Screen[T] {
	return newScreen(parent, name, message, deps, Loading[T]())
}

// NewIdle creates a screen that waits for user input before its first
// fetch, like a form.
func NewIdle[T any](parent context.Context, name, message string, deps Deps) *Screen[T] {
	return newScreen(parent, name, message, deps, Idle[T]())
}

func newScreen[T any](parent context.Context, name, message string, deps Deps, initial State[T]) *Screen[T] {
	ctx, cancel := context.WithCancel(parent)
	return &Screen[T]{
		name:    name,
		message: message,
		logger:  deps.logger().With("component", "screen", "screen", name),
		metrics: deps.Metrics,
		ctx:     ctx,
		cancel:  cancel,
		state:   initial,
	}
}

func (s *Screen[T]) Name() string { return s.name }

// State returns the current state.
func (s *Screen[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cause returns the error behind the current Error state, or nil. It is for
// logging and status codes, never for display.
func (s *Screen[T]) Cause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Kind != KindError {
		return nil
	}
	return s.cause
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states. The channel is closed by Close.
func (s *Screen[T]) Subscribe() <-chan State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan State[T], 1)
	if s.closed {
		close(ch)
		return ch
	}
	ch <- s.state
	s.subs = append(s.subs, ch)
	return ch
}

// Launch enters Loading and runs fetch in the background.
func (s *Screen[T]) Launch(fetch Fetch[T]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.set(Loading[T](), nil)
	go func() {
		defer s.wg.Done()
		s.run(s.ctx, s.message, fetch)
	}()
}

// Load is the blocking form of Launch. The fetch is cancelled when either ctx
// or the screen is done.
func (s *Screen[T]) Load(ctx context.Context, fetch Fetch[T]) State[T] {
	return s.LoadWithMessage(ctx, s.message, fetch)
}

// LoadWithMessage is Load for screens that report different failures per
// action.
func (s *Screen[T]) LoadWithMessage(ctx context.Context, message string, fetch Fetch[T]) State[T] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.set(Loading[T](), nil)
	s.run(ctx, message, fetch)
	return s.State()
}

func (s *Screen[T]) run(ctx context.Context, message string, fetch Fetch[T]) {
	data, err := fetch(ctx)
	if s.ctx.Err() != nil {
		s.logger.Debug("dropping result of cancelled fetch")
		return
	}
	if err != nil {
		s.logger.Error("fetch failed", "error", err)
		s.set(Failure[T](message), err)
		s.metrics.ObserveScreen(s.name, KindError.String())
		return
	}
	s.set(Success(data), nil)
	s.metrics.ObserveScreen(s.name, KindSuccess.String())
}

// Update replaces the state in place, for local edits such as an optimistic
// toggle.
func (s *Screen[T]) Update(fn func(State[T]) State[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.publish(fn(s.state), s.cause)
}

// FailWith moves the screen to Error with message and logs cause.
func (s *Screen[T]) FailWith(message string, cause error) {
	s.logger.Error("action failed", "error", cause)
	s.set(Failure[T](message), cause)
	s.metrics.ObserveScreen(s.name, KindError.String())
}

func (s *Screen[T]) set(st State[T], cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.publish(st, cause)
}

// publish stores st and fans it out. s.mu must be held.
func (s *Screen[T]) publish(st State[T], cause error) {
	s.state = st
	s.cause = cause
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

// Close cancels running fetches, waits for them to return and closes all
// subscriptions. Later results are dropped.
func (s *Screen[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	for _, ch := range subs {
		close(ch)
	}
}

// Package emitter provides a process-local publish/subscribe bus mapping
// event names to ordered subscriber lists. Emits are synchronous and
// operate on a snapshot of the subscriber list, so handlers may safely
// subscribe and unsubscribe reentrantly.
package emitter

import (
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler reacts to an emitted event. The args are the emit payload.
// A non-nil error is reported to the bus error sink; it does not stop
// the emit.
type Handler func(args ...any) error

// Subscription identifies one registration of a handler on one event.
// Registering the same handler twice yields two distinct subscriptions.
type Subscription struct {
	id    string
	event string
	once  bool
	fn    Handler
	fnPtr uintptr
	bus   *Bus
}

// ID returns the unique token of this registration.
func (s *Subscription) ID() string { return s.id }

// Event returns the event name this registration listens on.
func (s *Subscription) Event() string { return s.event }

// Unsubscribe removes this registration from its bus. It reports
// whether an entry was removed; a second call returns false.
func (s *Subscription) Unsubscribe() bool {
	if s == nil || s.bus == nil {
		return false
	}
	return s.bus.Unsubscribe(s)
}

// Bus provides in-process pub/sub keyed by event name.
type Bus struct {
	mu       sync.RWMutex
	registry map[string][]*Subscription
	logger   *zerolog.Logger
	sink     func(error)
	metrics  *Metrics
}

// Subscribe registers fn for event and returns its subscription handle.
// The handler is never invoked during Subscribe.
func (b *Bus) Subscribe(event string, fn Handler) (*Subscription, error) {
	return b.subscribe(event, fn, false)
}

// SubscribeOnce registers fn for event for a single delivery. The entry
// is consumed by the first emit that includes it, even if the handler
// fails.
func (b *Bus) SubscribeOnce(event string, fn Handler) (*Subscription, error) {
	return b.subscribe(event, fn, true)
}

func (b *Bus) subscribe(event string, fn Handler, once bool) (*Subscription, error) {
	if event == "" {
		return nil, ErrEmptyEventName
	}
	if fn == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{
		id:    uuid.NewString(),
		event: event,
		once:  once,
		fn:    fn,
		fnPtr: reflect.ValueOf(fn).Pointer(),
		bus:   b,
	}

	b.mu.Lock()
	b.registry[event] = append(b.registry[event], sub)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.AddActiveSubscriptions(1)
	}
	b.logger.Debug().Str("event", event).Str("subscription_id", sub.id).Msg("subscribed")
	return sub, nil
}

// Unsubscribe removes the registration identified by sub. It reports
// whether an entry was removed; removing an unknown or already-removed
// subscription returns false and performs no mutation.
func (b *Bus) Unsubscribe(sub *Subscription) bool {
	if sub == nil {
		return false
	}
	return b.remove(sub.event, func(s *Subscription) bool { return s.id == sub.id })
}

// UnsubscribeFunc removes the first registration of fn on event, matched
// by the handler's code pointer. Distinct closures built from the same
// function literal compare equal under this match; use the subscription
// handle when that precision matters.
func (b *Bus) UnsubscribeFunc(event string, fn Handler) bool {
	if fn == nil {
		return false
	}
	ptr := reflect.ValueOf(fn).Pointer()
	return b.remove(event, func(s *Subscription) bool { return s.fnPtr == ptr })
}

func (b *Bus) remove(event string, match func(*Subscription) bool) bool {
	b.mu.Lock()
	entries, ok := b.registry[event]
	if !ok {
		b.mu.Unlock()
		return false
	}
	idx := -1
	for i, s := range entries {
		if match(s) {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return false
	}
	id := entries[idx].id
	entries = append(entries[:idx], entries[idx+1:]...)
	if len(entries) == 0 {
		delete(b.registry, event)
	} else {
		b.registry[event] = entries
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.AddActiveSubscriptions(-1)
	}
	b.logger.Debug().Str("event", event).Str("subscription_id", id).Msg("unsubscribed")
	return true
}

// Emit synchronously invokes every subscriber currently registered for
// event, in registration order, passing args to each. The subscriber
// list is snapshotted before the first invocation: handlers that
// subscribe or unsubscribe on the same event only affect future emits.
// Emitting an unknown event is a no-op.
func (b *Bus) Emit(event string, args ...any) {
	b.mu.Lock()
	entries := b.registry[event]
	if len(entries) == 0 {
		b.mu.Unlock()
		return
	}
	snapshot := make([]*Subscription, len(entries))
	copy(snapshot, entries)

	// Once-entries are consumed atomically with the snapshot so a
	// reentrant emit cannot deliver them a second time.
	consumed := 0
	remaining := make([]*Subscription, 0, len(entries))
	for _, s := range entries {
		if s.once {
			consumed++
			continue
		}
		remaining = append(remaining, s)
	}
	if consumed > 0 {
		if len(remaining) == 0 {
			delete(b.registry, event)
		} else {
			b.registry[event] = remaining
		}
	}
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.IncEmitted(event)
		if consumed > 0 {
			b.metrics.AddActiveSubscriptions(-consumed)
		}
	}

	start := time.Now()
	for _, sub := range snapshot {
		b.dispatch(event, sub, args)
	}
	if b.metrics != nil {
		b.metrics.ObserveDispatchDuration(time.Since(start).Seconds())
	}
}

// dispatch runs one handler with no bus lock held, isolating errors and
// panics per subscriber.
func (b *Bus) dispatch(event string, sub *Subscription, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.report(event, sub, &panicError{value: r})
		}
	}()
	if err := sub.fn(args...); err != nil {
		b.report(event, sub, err)
	}
}

func (b *Bus) report(event string, sub *Subscription, err error) {
	if b.metrics != nil {
		b.metrics.IncSubscriberFailures(event)
	}
	b.sink(&SubscriberError{Event: event, SubscriptionID: sub.id, Err: err})
}

// Clear removes every subscriber of event and returns how many were
// removed. Clearing an unknown event returns 0.
func (b *Bus) Clear(event string) int {
	b.mu.Lock()
	n := len(b.registry[event])
	if n > 0 {
		delete(b.registry, event)
	}
	b.mu.Unlock()

	if n > 0 {
		if b.metrics != nil {
			b.metrics.AddActiveSubscriptions(-n)
		}
		b.logger.Debug().Str("event", event).Int("removed", n).Msg("cleared event")
	}
	return n
}

// SubscriberCount returns the number of registrations for event.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.registry[event])
}

// EventNames returns the names of all events with at least one
// subscriber, sorted for determinism.
func (b *Bus) EventNames() []string {
	b.mu.RLock()
	names := make([]string, 0, len(b.registry))
	for name := range b.registry {
		names = append(names, name)
	}
	b.mu.RUnlock()

	sort.Strings(names)
	return names
}

package runtime

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/herlein/fwctl/pkg/notify"
)

// Event is one unit of work posted onto the Dispatcher's queue. Exactly
// one of the fields is set; producers (node-event thread, card-event
// thread, interval timer) each construct their own kind (spec.md §5:
// "External dispatchers ... each run on their own OS thread and post
// events through a single multi-producer/single-consumer channel").
type Event struct {
	// BitmaskNotify carries a raw notification mask to run through a
	// notify.BitmaskTable (spec.md §4.G).
	BitmaskNotify *BitmaskNotify
	// MessageFrame carries bytes newly arrived at a MOTU Command DSP
	// receive address, to be appended to a notify.FrameBuffer.
	MessageFrame []byte
	// LockChanged carries a new streaming-lock state.
	LockChanged *bool
	// Func is an arbitrary owner-initiated task (e.g. a user update)
	// that must interleave with notification handling in issuance
	// order rather than race with it.
	Func func() error
}

// BitmaskNotify pairs a raw mask with the table that interprets it.
type BitmaskNotify struct {
	Table notify.BitmaskTable
	Mask  uint32
}

// Dispatcher is the owner's single-consumer run loop named in spec.md
// §5. It does not spawn goroutines of its own; producers external to
// this package push onto its channel from their own threads, and Run
// drains it sequentially on the calling goroutine so that notification
// handling and user-initiated updates never race (spec.md §5
// "Notification handling is strictly after any in-flight user-
// initiated update on the same thread").
type Dispatcher struct {
	events chan Event
	frames notify.FrameBuffer
	logger *log.Logger

	// OnFrame decodes one complete MOTU Command DSP frame extracted
	// from the rolling buffer. Left nil if the unit has no message-
	// frame notifications.
	OnFrame func(payload []byte) error

	// Lock tracks the unit's streaming-lock flag. LockChanged events
	// update it and arm debounce before re-caching (spec.md §4.G: the
	// 500ms debounce on streaming-lock notifications).
	Lock     StreamingLock
	debounce *notify.Debouncer
	// OnLockSettled runs once, 500ms after the most recent lock-state
	// change, carrying the settled value (spec.md §4.G: "the hardware
	// emits the lock bit before actual isochronous packets start; the
	// core defers follow-up caching until the debounce elapses"). The
	// debounce timer posts it back onto the event queue, so it runs on
	// the goroutine executing Run. Left nil if the unit has no
	// streaming-lock notifications.
	OnLockSettled func(locked bool)
}

// NewDispatcher returns a Dispatcher with the given channel capacity
// (0 for unbuffered, matching spec.md's single-consumer guarantee
// regardless of buffering).
func NewDispatcher(capacity int) *Dispatcher {
	return &Dispatcher{
		events:   make(chan Event, capacity),
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "fwctl"}),
		debounce: notify.NewDebouncer(),
	}
}

// Post enqueues an event. Safe to call concurrently from multiple
// producer threads.
func (d *Dispatcher) Post(ev Event) {
	d.events <- ev
}

// Run drains events until ctx is cancelled, log-and-continuing on
// handler errors per spec.md §7 ("Background threads ... log-and-
// continue; they do not mutate parameter records on error").
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.handle(ev)
		}
	}
}

func (d *Dispatcher) handle(ev Event) {
	switch {
	case ev.BitmaskNotify != nil:
		recached, err := ev.BitmaskNotify.Table.Dispatch(ev.BitmaskNotify.Mask)
		if err != nil {
			d.logger.Error("notification recache failed", "mask", fmt.Sprintf("0x%08x", ev.BitmaskNotify.Mask), "err", err)
		}
		d.logger.Debug("recached sections", "sections", recached)

	case ev.MessageFrame != nil:
		d.frames.Append(ev.MessageFrame)
		for _, payload := range d.frames.Drain() {
			if d.OnFrame == nil {
				continue
			}
			if err := d.OnFrame(payload); err != nil {
				d.logger.Error("command frame decode failed", "err", err)
			}
		}

	case ev.LockChanged != nil:
		locked := *ev.LockChanged
		d.Lock.Set(locked)
		if d.OnLockSettled != nil {
			d.debounce.Arm(func() {
				d.Post(Event{Func: func() error {
					d.OnLockSettled(locked)
					return nil
				}})
			})
		}

	case ev.Func != nil:
		if err := ev.Func(); err != nil {
			d.logger.Error("dispatched task failed", "err", err)
		}
	}
}

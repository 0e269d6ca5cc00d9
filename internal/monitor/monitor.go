/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package monitor implements the per-object recursive lock with
// wait/notify/notifyAll described in spec.md §4.5, grounded on
// original_source/native/runtime/include/vm_monitor.h. Every heap
// object acquires one of these lazily on first contended use; the
// object header in internal/object stores only a *Monitor pointer so
// an uncontended object never pays for one.
package monitor

import (
	"sync"
	"time"
)

// waiter is one thread's node on a monitor's wait set. Each waiter
// blocks on its own private condition variable so that Notify can wake
// exactly one of them instead of broadcasting to all and making the
// rest recheck a predicate.
type waiter struct {
	cond      *sync.Cond
	woken     bool
	timedOut  bool
	interrupt bool
}

// Monitor is the lock+condition-variable pair backing one heap object's
// synchronization state. Mirrors vm_monitor.h's monitorEnter/Exit/Wait/
// Notify/NotifyAll surface.
type Monitor struct {
	mu         sync.Mutex // "master mutex" in §4.5
	owner      int64      // 0 means unowned; otherwise a thread id
	reentrance int

	// releaseCond is signaled whenever Exit (or Wait, giving up
	// ownership) drops owner back to 0, waking one thread blocked in
	// Enter's retry loop. Created lazily since most monitors are never
	// contended.
	releaseCond *sync.Cond

	waiters []*waiter
}

// ErrNotOwner is returned by Exit/Wait when the calling thread does not
// hold the monitor, corresponding to IllegalMonitorStateException at
// the Java level. internal/intrinsics' MonitorExit returns it unchanged;
// no pending Java exception is set.
var ErrNotOwner = errNotOwner{}

type errNotOwner struct{}

func (errNotOwner) Error() string { return "current thread does not own this monitor" }

// New allocates a fresh, unowned monitor. Object creation calls this
// lazily (§4.5: "Each object acquires a monitor lazily on first use"),
// except for the class-object monitor, which vm_monitor.h's comment
// says must be pre-created at class-creation time to avoid recursing
// into monitor allocation for a class whose Class object isn't fully
// built yet; internal/classloader does that explicitly.
func New() *Monitor {
	return &Monitor{}
}

// Enter implements monitorEnter: acquire the master mutex; if unowned
// or already owned by us, take it (incrementing reentrance); otherwise
// block until the owner releases it.
func (m *Monitor) Enter(threadID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if m.owner == 0 || m.owner == threadID {
			m.owner = threadID
			m.reentrance++
			return
		}
		// Block on the lazily-created releaseCond (separate from the
		// per-waiter conds Wait uses) until Exit or Wait drops
		// ownership, then retry, mirroring the busy-free condition-wait
		// loop vm_monitor.h describes for contended enter.
		m.waitForRelease()
	}
}

// releaseCond is lazily created the first time a thread needs to block
// waiting for ownership (distinct from the per-waiter cond used by
// Wait/Notify, which models java.lang.Object.wait()).
func (m *Monitor) waitForRelease() {
	if m.releaseCond == nil {
		m.releaseCond = sync.NewCond(&m.mu)
	}
	m.releaseCond.Wait()
}

// Exit implements monitorExit: decrement reentrance; when it reaches
// zero, clear ownership and wake one thread blocked in Enter.
func (m *Monitor) Exit(threadID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.owner != threadID {
		return ErrNotOwner
	}
	m.reentrance--
	if m.reentrance == 0 {
		m.owner = 0
		if m.releaseCond != nil {
			m.releaseCond.Signal()
		}
	}
	return nil
}

// Wait implements monitorWait: the calling thread must own the
// monitor. It parks the caller on a private waiter node, restoring the
// saved reentrance count on wake, per §4.5 and §8's "wait releases the
// monitor during the wait; on return the reentrance count equals the
// pre-wait count."
//
// timeout == 0 waits indefinitely. Returns true if notified/woken
// normally, false on timeout, and sets wasInterrupted if the thread's
// interrupt flag was set while waiting.
func (m *Monitor) Wait(threadID int64, timeout time.Duration) (woken bool, wasInterrupted bool, err error) {
	m.mu.Lock()
	if m.owner != threadID {
		m.mu.Unlock()
		return false, false, ErrNotOwner
	}

	savedReentrance := m.reentrance
	w := &waiter{cond: sync.NewCond(&m.mu)}
	m.waiters = append(m.waiters, w)

	// Release ownership for the duration of the wait.
	m.owner = 0
	m.reentrance = 0
	if m.releaseCond != nil {
		m.releaseCond.Signal()
	}

	if timeout <= 0 {
		for !w.woken {
			w.cond.Wait()
		}
	} else {
		deadline := time.Now().Add(timeout)
		done := make(chan struct{})
		timer := time.AfterFunc(timeout, func() {
			m.mu.Lock()
			if !w.woken {
				w.timedOut = true
				w.woken = true
				w.cond.Signal()
			}
			m.mu.Unlock()
			close(done)
		})
		for !w.woken && time.Now().Before(deadline) {
			w.cond.Wait()
		}
		timer.Stop()
	}

	// Re-acquire ownership, restoring the saved reentrance count.
	for m.owner != 0 {
		m.waitForRelease()
	}
	m.owner = threadID
	m.reentrance = savedReentrance
	interrupted := w.interrupt
	timedOut := w.timedOut
	m.removeWaiter(w)
	m.mu.Unlock()
	return !timedOut, interrupted, nil
}

func (m *Monitor) removeWaiter(target *waiter) {
	out := m.waiters[:0]
	for _, w := range m.waiters {
		if w != target {
			out = append(out, w)
		}
	}
	m.waiters = out
}

// Notify wakes exactly one waiter, per §4.5/§8.
func (m *Monitor) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.waiters) == 0 {
		return
	}
	w := m.waiters[0]
	w.woken = true
	w.cond.Signal()
}

// NotifyAll wakes every waiter.
func (m *Monitor) NotifyAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.waiters {
		w.woken = true
		w.cond.Signal()
	}
}

// Interrupt sets the interrupt flag on every waiter belonging to
// threadID and wakes it, letting Wait return wasInterrupted=true. In
// practice a thread has at most one outstanding wait, so this scans a
// small slice.
func (m *Monitor) Interrupt(threadID int64, isWaiter func(w *waiter) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.waiters {
		if isWaiter(w) {
			w.interrupt = true
			w.woken = true
			w.cond.Signal()
		}
	}
}

// Owner returns the id of the thread currently holding the monitor, or
// 0 if unowned.
func (m *Monitor) Owner() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

// Reentrance returns the current reentrance count (0 if unowned).
func (m *Monitor) Reentrance() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reentrance
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

import "reflect"

// Observer is notified of changes to the level of an input line.
//
// Observers are compared by identity when unregistering so implementations
// must be comparable, typically a pointer.
type Observer interface {
	// Notify is called from the poll loop after a change to the level of
	// the line is detected. The new level is available from l.Level().
	//
	// An error returned by Notify is logged and does not prevent the
	// notification of other observers.
	Notify(l *Line) error
}

type funcObserver struct {
	fn func(*Line) error
}

func (o *funcObserver) Notify(l *Line) error {
	return o.fn(l)
}

// ObserverFunc returns an Observer that calls fn.
//
// Each call returns a distinct Observer, so the returned value must be
// retained to later unregister it.
func ObserverFunc(fn func(l *Line) error) Observer {
	return &funcObserver{fn: fn}
}

// Register adds an observer for changes to the level of the line.
//
// Only valid for input lines. Observers of a line are notified in the order
// they were registered. An observer registered multiple times is notified
// once per registration.
//
// A nil or non-comparable observer is rejected with ErrObserverNotComparable.
//
// The poll loop must be started with Start for observers to be notified.
func (b *Bridge) Register(l *Line, o Observer) error {
	if l.direction != In {
		return ErrDirection{Op: "observe", Direction: l.direction}
	}
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return ErrObserverNotComparable
	}
	b.omu.Lock()
	b.observers[l] = append(b.observers[l], o)
	b.omu.Unlock()
	// wake the poll loop if idle
	select {
	case b.wake <- struct{}{}:
	default:
	}
	return nil
}

// Unregister removes the first registration of the observer for the line.
//
// Returns true if a registration was removed.
func (b *Bridge) Unregister(l *Line, o Observer) bool {
	b.omu.Lock()
	defer b.omu.Unlock()
	oo := b.observers[l]
	for i, ob := range oo {
		if ob != o {
			continue
		}
		if len(oo) == 1 {
			delete(b.observers, l)
			return true
		}
		no := make([]Observer, 0, len(oo)-1)
		no = append(no, oo[:i]...)
		b.observers[l] = append(no, oo[i+1:]...)
		return true
	}
	return false
}

// Observed returns the number of lines with registered observers.
func (b *Bridge) Observed() int {
	b.omu.Lock()
	defer b.omu.Unlock()
	return len(b.observers)
}

// observedLines returns a snapshot of the lines with registered observers.
func (b *Bridge) observedLines() []*Line {
	b.omu.Lock()
	defer b.omu.Unlock()
	if len(b.observers) == 0 {
		return nil
	}
	ll := make([]*Line, 0, len(b.observers))
	for l := range b.observers {
		ll = append(ll, l)
	}
	return ll
}

// observersOf returns a snapshot of the observers of the line.
//
// Unregister replaces rather than modifies the slice, and Register only
// appends, so the returned slice is safe to iterate outside the lock.
func (b *Bridge) observersOf(l *Line) []Observer {
	b.omu.Lock()
	defer b.omu.Unlock()
	oo := b.observers[l]
	return oo[:len(oo):len(oo)]
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// State indicates the state of the poll loop.
type State int

const (
	// Stopped indicates the poll loop is not running.
	Stopped State = iota

	// Idle indicates the poll loop is waiting for observers to be
	// registered.
	Idle

	// Sampling indicates the poll loop is reading the observed lines.
	Sampling

	// Dispatching indicates the poll loop is notifying observers of changed
	// lines.
	Dispatching
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Dispatching:
		return "dispatching"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (b *Bridge) poll(donech <-chan struct{}, exitch chan<- struct{}) {
	defer close(exitch)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("poll loop failed: %v", r)
			b.log.WithError(err).Error("poll loop stopped")
			b.lmu.Lock()
			b.err = err
			b.state = Stopped
			b.lmu.Unlock()
		}
	}()
	// consecutive sampling failures, keyed by line
	failures := map[*Line]int{}
	for {
		select {
		case <-donech:
			b.setState(Stopped)
			return
		default:
		}
		ll := b.observedLines()
		if len(ll) == 0 {
			b.setState(Idle)
			select {
			case <-donech:
			case <-b.wake:
			case <-time.After(b.idleTimeout):
			}
			continue
		}
		b.setState(Sampling)
		changed := b.sample(ll, failures)
		if len(changed) != 0 {
			b.setState(Dispatching)
			b.dispatch(changed)
		}
		select {
		case <-donech:
		case <-time.After(b.period):
		}
	}
}

// sample reads the lines and returns those with changed levels.
func (b *Bridge) sample(ll []*Line, failures map[*Line]int) []*Line {
	sort.Slice(ll, func(i, j int) bool {
		return ll[i].id < ll[j].id
	})
	changed := []*Line(nil)
	for _, l := range ll {
		_, ok, err := b.readValue(l)
		if err != nil {
			failures[l]++
			b.sampleFailed(l, failures[l], err)
			continue
		}
		delete(failures, l)
		if ok {
			changed = append(changed, l)
		}
	}
	return changed
}

func (b *Bridge) sampleFailed(l *Line, count int, err error) {
	log := b.lineLog(l).WithError(err).WithField("count", count)
	if b.threshold == 0 || count%b.threshold != 0 {
		log.Warn("sampling failed")
		return
	}
	log.Error("sampling failing repeatedly")
	if b.eh != nil {
		b.eh(l, count, err)
	}
}

func (b *Bridge) dispatch(ll []*Line) {
	if len(ll) > 1 {
		b.log.Debugf("found %d line changes", len(ll))
	}
	for _, l := range ll {
		oo := b.observersOf(l)
		b.lineLog(l).Debugf("changed to %s, notifying %d observers", l.Level(), len(oo))
		for _, o := range oo {
			b.notify(l, o)
		}
	}
}

// notify calls the observer, containing any failure it raises.
func (b *Bridge) notify(l *Line, o Observer) {
	defer func() {
		if r := recover(); r != nil {
			b.lineLog(l).WithField("panic", r).Warn("observer panicked")
		}
	}()
	if err := o.Notify(l); err != nil {
		b.lineLog(l).WithError(err).Warn("observer failed")
	}
}

func (b *Bridge) lineLog(l *Line) *logrus.Entry {
	return b.log.WithFields(logrus.Fields{
		"line":  l.Name(),
		"label": l.Label(),
	})
}

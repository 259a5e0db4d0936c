// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package gpiobridge is a library for accessing GPIO lines exported through
// the Linux sysfs GPIO interface.
//
// Supports:
// - Line direction validation (input/output)
// - Line write (low/high)
// - Line read (low/high)
// - Cached line levels
// - Observers notified of changes to input lines, detected by polling
// - Line labels
//
// Lines must already be exported, and configured with the required
// direction, before they can be used.
//
// Example of use:
//
//  b := gpiobridge.New()
//  led, err := b.GetLine(beaglebone.P9_14, gpiobridge.Out)
//  if err != nil {
//  	panic(err)
//  }
//  btn, err := b.GetLine(beaglebone.P9_11, gpiobridge.In)
//  if err != nil {
//  	panic(err)
//  }
//  b.Register(btn, gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
//  	return b.WriteValue(led, l.Level())
//  }))
//  b.Start()
//  defer b.Stop()
//
package gpiobridge

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/gpiobridge/sysfs"
)

// Bridge provides cached access to GPIO lines and notifies observers of
// changes to input lines.
//
// All methods are safe to call concurrently.
type Bridge struct {
	kernel      Kernel
	log         logrus.FieldLogger
	period      time.Duration
	idleTimeout time.Duration
	stopTimeout time.Duration
	threshold   int
	eh          EscalationHandler

	// mu covers the line cache.
	mu    sync.Mutex
	lines map[PinSpec]*Line

	// omu covers the observers.
	omu       sync.Mutex
	observers map[*Line][]Observer

	// signals the poll loop that observers have been registered.
	wake chan struct{}

	// lmu covers the poll loop state below it.
	lmu sync.Mutex

	// closed to request the poll loop exit.
	donech chan struct{}

	// closed once the poll loop exits.
	exitch chan struct{}

	state State

	// the failure that stopped the poll loop, if any.
	err error
}

// New creates a Bridge.
//
// The poll loop is not started until Start is called.
func New(options ...Option) *Bridge {
	opts := Options{
		period:      DefaultPollPeriod,
		idleTimeout: DefaultIdleTimeout,
		stopTimeout: DefaultStopTimeout,
	}
	for _, option := range options {
		option.applyOption(&opts)
	}
	if opts.kernel == nil {
		opts.kernel = sysfs.New()
	}
	if opts.log == nil {
		opts.log = logrus.StandardLogger()
	}
	return &Bridge{
		kernel:      opts.kernel,
		log:         opts.log,
		period:      opts.period,
		idleTimeout: opts.idleTimeout,
		stopTimeout: opts.stopTimeout,
		threshold:   opts.threshold,
		eh:          opts.eh,
		lines:       map[PinSpec]*Line{},
		observers:   map[*Line][]Observer{},
		wake:        make(chan struct{}, 1),
		state:       Stopped,
	}
}

// Start starts the poll loop that notifies observers of changes to input
// lines.
//
// Start is not required if no observers are registered.
// Calling Start while the poll loop is running has no effect.
func (b *Bridge) Start() error {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	if b.exitch != nil {
		select {
		case <-b.exitch:
		default:
			select {
			case <-b.donech:
				return ErrStopping
			default:
			}
			return nil
		}
	}
	b.donech = make(chan struct{})
	b.exitch = make(chan struct{})
	b.state = Idle
	b.err = nil
	go b.poll(b.donech, b.exitch)
	b.log.Debug("poll loop started")
	return nil
}

// Stop stops the poll loop.
//
// The current sampling cycle, including the notification of observers, is
// completed before the loop exits. Stop waits for the loop to exit, up to the
// stop timeout, and returns ErrStopTimeout if it has not.
//
// Stop may be called multiple times, and without a prior Start.
func (b *Bridge) Stop() error {
	b.lmu.Lock()
	donech := b.donech
	exitch := b.exitch
	if donech == nil {
		b.lmu.Unlock()
		return nil
	}
	select {
	case <-donech:
	default:
		close(donech)
	}
	b.lmu.Unlock()
	select {
	case <-exitch:
		return nil
	case <-time.After(b.stopTimeout):
		return ErrStopTimeout
	}
}

// State returns the current state of the poll loop.
func (b *Bridge) State() State {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	return b.state
}

// Err returns the failure that stopped the poll loop, or nil if the loop is
// running or was stopped by Stop.
func (b *Bridge) Err() error {
	b.lmu.Lock()
	defer b.lmu.Unlock()
	return b.err
}

func (b *Bridge) setState(s State) {
	b.lmu.Lock()
	b.state = s
	b.lmu.Unlock()
}

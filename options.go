// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Option defines the interface required to provide a Bridge option.
type Option interface {
	applyOption(*Options)
}

// Options contains the options for a Bridge.
type Options struct {
	kernel      Kernel
	log         logrus.FieldLogger
	period      time.Duration
	idleTimeout time.Duration
	stopTimeout time.Duration
	threshold   int
	eh          EscalationHandler
}

// EscalationHandler receives the line and latest error when the number of
// consecutive sampling failures on the line reaches the failure threshold.
//
// It is called from the poll loop.
type EscalationHandler func(l *Line, count int, err error)

const (
	// DefaultPollPeriod is the delay between sampling cycles.
	DefaultPollPeriod = 200 * time.Millisecond

	// DefaultIdleTimeout is the longest the poll loop idles before checking
	// for observed lines.
	DefaultIdleTimeout = time.Second

	// DefaultStopTimeout is the longest Stop waits for the poll loop to
	// exit.
	DefaultStopTimeout = 5 * time.Second
)

// KernelOption specifies the kernel interface used to access lines.
type KernelOption struct {
	k Kernel
}

// WithKernel specifies the kernel interface used to access lines.
//
// The default is the sysfs GPIO interface at /sys/class/gpio.
func WithKernel(k Kernel) KernelOption {
	return KernelOption{k}
}

func (o KernelOption) applyOption(opts *Options) {
	opts.kernel = o.k
}

// LoggerOption specifies the logger used to report failures.
type LoggerOption struct {
	l logrus.FieldLogger
}

// WithLogger specifies the logger used to report failures detected by the
// poll loop.
//
// The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) LoggerOption {
	return LoggerOption{l}
}

func (o LoggerOption) applyOption(opts *Options) {
	opts.log = o.l
}

// PollPeriodOption specifies the delay between sampling cycles.
type PollPeriodOption time.Duration

// WithPollPeriod specifies the delay between sampling cycles of the poll
// loop.
//
// Non-positive periods are ignored.
func WithPollPeriod(period time.Duration) PollPeriodOption {
	return PollPeriodOption(period)
}

func (o PollPeriodOption) applyOption(opts *Options) {
	if o > 0 {
		opts.period = time.Duration(o)
	}
}

// IdleTimeoutOption specifies the longest the poll loop idles.
type IdleTimeoutOption time.Duration

// WithIdleTimeout specifies the longest the poll loop idles, while no lines
// are observed, before checking again.
//
// Non-positive timeouts are ignored.
func WithIdleTimeout(timeout time.Duration) IdleTimeoutOption {
	return IdleTimeoutOption(timeout)
}

func (o IdleTimeoutOption) applyOption(opts *Options) {
	if o > 0 {
		opts.idleTimeout = time.Duration(o)
	}
}

// StopTimeoutOption specifies the longest Stop waits for the poll loop.
type StopTimeoutOption time.Duration

// WithStopTimeout specifies the longest Stop waits for the poll loop to
// exit.
//
// Non-positive timeouts are ignored.
func WithStopTimeout(timeout time.Duration) StopTimeoutOption {
	return StopTimeoutOption(timeout)
}

func (o StopTimeoutOption) applyOption(opts *Options) {
	if o > 0 {
		opts.stopTimeout = time.Duration(o)
	}
}

// FailureThresholdOption specifies the number of consecutive sampling
// failures on a line that are escalated.
type FailureThresholdOption int

// WithFailureThreshold specifies the number of consecutive sampling failures
// on a line after which the failure is escalated, and then escalated again
// every threshold failures.
//
// Escalated failures are logged at error level and passed to the
// EscalationHandler, if any. Sampling of the line continues regardless.
//
// A threshold of 0, the default, disables escalation.
func WithFailureThreshold(threshold int) FailureThresholdOption {
	return FailureThresholdOption(threshold)
}

func (o FailureThresholdOption) applyOption(opts *Options) {
	if o >= 0 {
		opts.threshold = int(o)
	}
}

// WithEscalationHandler specifies a handler called when sampling failures are
// escalated.
//
// Has no effect unless a failure threshold is set.
func WithEscalationHandler(eh EscalationHandler) EscalationHandler {
	return eh
}

func (eh EscalationHandler) applyOption(opts *Options) {
	opts.eh = eh
}

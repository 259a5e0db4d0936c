// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrStopping indicates the poll loop cannot be started as a previous
	// loop has not yet exited.
	ErrStopping = errors.New("poll loop is stopping")

	// ErrStopTimeout indicates the poll loop did not exit within the stop
	// timeout.
	ErrStopTimeout = errors.New("timeout waiting for poll loop to exit")

	// ErrObserverNotComparable indicates the observer cannot be registered as
	// it cannot be compared to later unregister it.
	ErrObserverNotComparable = errors.New("observer is not comparable")
)

// ErrConfiguration indicates the direction requested for a line does not
// match the direction the line is exported with.
type ErrConfiguration struct {
	Pin       PinSpec
	Requested Direction
	Kernel    Direction
}

func (e ErrConfiguration) Error() string {
	return fmt.Sprintf("actual direction of %s (gpio%d) is %s not %s",
		e.Pin, e.Pin.LineID(), e.Kernel, e.Requested)
}

// ErrPermission indicates the process lacks the access to a line resource
// required by the line direction.
type ErrPermission struct {
	ID       int
	Resource string
	Err      error
}

func (e ErrPermission) Error() string {
	return fmt.Sprintf("permission denied on gpio%d %s: %s", e.ID, e.Resource, e.Err)
}

func (e ErrPermission) Unwrap() error {
	return e.Err
}

// ErrNotExported indicates the line has not been exported to userspace.
type ErrNotExported struct {
	ID int
}

func (e ErrNotExported) Error() string {
	return fmt.Sprintf("gpio%d is not exported", e.ID)
}

// ErrDirection indicates the operation is not valid for the direction of the
// line.
type ErrDirection struct {
	Op        string
	Direction Direction
}

func (e ErrDirection) Error() string {
	return fmt.Sprintf("%s not valid for %sput line", e.Op, e.Direction)
}

// ErrParse indicates a value read from the kernel was not recognised.
type ErrParse struct {
	Value string
}

func (e ErrParse) Error() string {
	return fmt.Sprintf("can't parse '%s'", e.Value)
}

// ErrIO indicates a failure accessing a line resource, or an unrecognised
// value read from it.
type ErrIO struct {
	Op  string
	ID  int
	Err error
}

func (e ErrIO) Error() string {
	return fmt.Sprintf("%s gpio%d: %s", e.Op, e.ID, e.Err)
}

func (e ErrIO) Unwrap() error {
	return e.Err
}

// kernelError maps an error returned by the Kernel to the bridge error
// taxonomy.
func kernelError(op string, id int, resource string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotExported{ID: id}
	case errors.Is(err, fs.ErrPermission):
		return ErrPermission{ID: id, Resource: resource, Err: err}
	}
	return ErrIO{Op: op, ID: id, Err: err}
}

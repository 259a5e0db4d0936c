// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package mockup provides a mock of the sysfs GPIO interface.
//
// This is intended for testing of gpiobridge, but could also be used for
// testing by users of their own code that uses gpiobridge.
package mockup

import (
	"fmt"
	"io/fs"
	"sync"
)

// Kernel is an in-memory mock of the lines exported through the sysfs GPIO
// interface.
//
// Kernel implements the gpiobridge.Kernel interface.
type Kernel struct {
	mu    sync.Mutex
	lines map[int]*line

	directionReads int
	valueReads     int
	valueWrites    int
}

type line struct {
	direction string
	value     string
	noRead    bool
	noWrite   bool
	readErr   error
}

// New creates a new mock Kernel with no lines exported.
func New() *Kernel {
	return &Kernel{lines: map[int]*line{}}
}

// Export adds the line with the given direction, "in" or "out", and a value
// of "0".
//
// Any other direction string is stored as is, to mock a bad attribute.
// Exporting a line that is already exported resets it.
func (k *Kernel) Export(id int, direction string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.lines[id] = &line{direction: direction, value: "0"}
}

// Unexport removes the line.
func (k *Kernel) Unexport(id int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.lines, id)
}

// SetValue sets the value of the line, as if driven externally.
func (k *Kernel) SetValue(id int, value int) error {
	v := "0"
	if value != 0 {
		v = "1"
	}
	return k.SetRawValue(id, v)
}

// SetRawValue sets the value attribute of the line as is, to mock a bad
// attribute.
func (k *Kernel) SetRawValue(id int, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return ErrorNotExported{id}
	}
	l.value = value
	return nil
}

// Value returns the value of the line, as last set or written.
func (k *Kernel) Value(id int) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return 0, ErrorNotExported{id}
	}
	if l.value == "1" {
		return 1, nil
	}
	return 0, nil
}

// Deny sets whether reads and writes of the line value are denied.
func (k *Kernel) Deny(id int, read, write bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return ErrorNotExported{id}
	}
	l.noRead = read
	l.noWrite = write
	return nil
}

// FailReads causes reads of the line value to return err.
//
// A nil err restores normal reads.
func (k *Kernel) FailReads(id int, err error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return ErrorNotExported{id}
	}
	l.readErr = err
	return nil
}

// DirectionReads returns the number of reads of direction attributes.
//
// Every attempt is counted, including reads of lines that are not exported.
func (k *Kernel) DirectionReads() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.directionReads
}

// ValueReads returns the number of reads of value attributes.
//
// Every attempt is counted, including failed reads.
func (k *Kernel) ValueReads() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.valueReads
}

// ValueWrites returns the number of writes to value attributes.
func (k *Kernel) ValueWrites() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.valueWrites
}

// ReadDirection returns the direction attribute of the line.
func (k *Kernel) ReadDirection(id int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.directionReads++
	l, ok := k.lines[id]
	if !ok {
		return "", notExist(id, "direction")
	}
	return l.direction, nil
}

// ReadValue returns the value attribute of the line.
func (k *Kernel) ReadValue(id int) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.valueReads++
	l, ok := k.lines[id]
	if !ok {
		return "", notExist(id, "value")
	}
	if l.noRead {
		return "", denied(id, "open")
	}
	if l.readErr != nil {
		return "", l.readErr
	}
	return l.value, nil
}

// WriteValue sets the value attribute of the line.
func (k *Kernel) WriteValue(id int, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return notExist(id, "value")
	}
	if l.noWrite {
		return denied(id, "open")
	}
	k.valueWrites++
	l.value = value
	return nil
}

// CheckRead returns an error if reads of the line value are denied.
func (k *Kernel) CheckRead(id int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return notExist(id, "value")
	}
	if l.noRead {
		return denied(id, "access")
	}
	return nil
}

// CheckWrite returns an error if writes of the line value are denied.
func (k *Kernel) CheckWrite(id int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.lines[id]
	if !ok {
		return notExist(id, "value")
	}
	if l.noWrite {
		return denied(id, "access")
	}
	return nil
}

func attrPath(id int, attr string) string {
	return fmt.Sprintf("/sys/class/gpio/gpio%d/%s", id, attr)
}

func notExist(id int, attr string) error {
	return &fs.PathError{Op: "open", Path: attrPath(id, attr), Err: fs.ErrNotExist}
}

func denied(id int, op string) error {
	return &fs.PathError{Op: op, Path: attrPath(id, "value"), Err: fs.ErrPermission}
}

// ErrorNotExported indicates the line is not exported in the mock.
type ErrorNotExported struct {
	ID int
}

func (e ErrorNotExported) Error() string {
	return fmt.Sprintf("gpio%d is not exported", e.ID)
}

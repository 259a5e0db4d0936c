// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

import (
	"fmt"
	"sync"
)

// PinSpec identifies a physical pin by the GPIO chip and offset it is
// attached to.
//
// PinSpecs are usually taken from a board pin table, such as
// device/beaglebone.
type PinSpec struct {
	// The user label of the pin, e.g. "P8.07".
	Label string

	// The GPIO chip controlling the pin.
	Chip int

	// The offset of the pin within the chip.
	Offset int
}

// LineID returns the number with which the line is exported to userspace.
func (p PinSpec) LineID() int {
	return p.Chip*32 + p.Offset
}

func (p PinSpec) String() string {
	return p.Label
}

// Direction indicates the direction of a line.
type Direction int

const (
	// In indicates the line is an input.
	In Direction = iota

	// Out indicates the line is an output.
	Out
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection returns the Direction corresponding to the kernel
// representation, "in" or "out".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	}
	return In, ErrParse{Value: s}
}

// Level is the digital state of a line.
type Level int

const (
	// Low indicates a value of 0.
	Low Level = iota

	// High indicates a value of 1.
	High
)

// Opposite returns the other level.
func (l Level) Opposite() Level {
	if l == High {
		return Low
	}
	return High
}

// IsHigh returns true if the level is High.
func (l Level) IsHigh() bool {
	return l == High
}

// Value returns the kernel representation of the level, "0" or "1".
func (l Level) Value() string {
	if l == High {
		return "1"
	}
	return "0"
}

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// ParseLevel returns the Level corresponding to the kernel representation,
// "0" or "1".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "0":
		return Low, nil
	case "1":
		return High, nil
	}
	return Low, ErrParse{Value: s}
}

// Line represents a single exported GPIO line.
//
// Lines are created and cached by the Bridge and are only ever obtained
// through Bridge.GetLine.
type Line struct {
	pin       PinSpec
	id        int
	direction Direction

	// mu covers the attributes below it.
	mu    sync.Mutex
	label string
	level Level
}

func newLine(pin PinSpec, direction Direction) *Line {
	id := pin.LineID()
	return &Line{
		pin:       pin,
		id:        id,
		direction: direction,
		label:     kernelName(id),
	}
}

func kernelName(id int) string {
	return fmt.Sprintf("gpio%d", id)
}

// Pin returns the pin the line is attached to.
func (l *Line) Pin() PinSpec {
	return l.pin
}

// ID returns the kernel line number, e.g. 60.
func (l *Line) ID() int {
	return l.id
}

// Name returns the kernel name of the line, e.g. "gpio60".
func (l *Line) Name() string {
	return kernelName(l.id)
}

// Direction returns the direction of the line.
func (l *Line) Direction() Direction {
	return l.direction
}

// Label returns the user label of the line.
//
// The label defaults to the kernel name.
func (l *Line) Label() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.label
}

// SetLabel sets a user label for the line, e.g. "Green Button".
func (l *Line) SetLabel(label string) {
	l.mu.Lock()
	l.label = label
	l.mu.Unlock()
}

// Level returns the level last read from or written to the line.
func (l *Line) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// update sets the cached level and reports if it changed.
//
// Assumes l is locked.
func (l *Line) update(level Level) bool {
	changed := l.level != level
	l.level = level
	return changed
}

func (l *Line) String() string {
	return l.pin.Label
}

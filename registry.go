// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

// GetLine returns the Line attached to the pin.
//
// The first request for a pin validates the requested direction against the
// direction the line is exported with, and checks the process can read (for
// inputs) or write (for outputs) the line value. The Line is then cached and
// returned by all subsequent requests for the pin, without further
// validation, so a pin cannot be requested with different directions.
//
// An unrecognised kernel direction is reported as an ErrIO wrapping an
// ErrParse.
func (b *Bridge) GetLine(pin PinSpec, direction Direction) (*Line, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.lines[pin]; ok {
		return l, nil
	}
	id := pin.LineID()
	ds, err := b.kernel.ReadDirection(id)
	if err != nil {
		return nil, kernelError("read direction", id, "direction", err)
	}
	kd, err := ParseDirection(ds)
	if err != nil {
		return nil, ErrIO{Op: "parse direction", ID: id, Err: err}
	}
	if kd != direction {
		return nil, ErrConfiguration{Pin: pin, Requested: direction, Kernel: kd}
	}
	if direction == In {
		err = b.kernel.CheckRead(id)
	} else {
		err = b.kernel.CheckWrite(id)
	}
	if err != nil {
		return nil, kernelError("access value", id, "value", err)
	}
	l := newLine(pin, direction)
	b.lines[pin] = l
	b.log.WithField("line", l.Name()).Debugf("cached %s as %sput", pin, direction)
	return l, nil
}

// Lines returns the number of lines cached by the bridge.
func (b *Bridge) Lines() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

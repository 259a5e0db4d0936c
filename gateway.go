// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

// WriteValue sets the level of the line.
//
// Only valid for output lines. The cached level of the line is only updated
// if the write succeeds.
func (b *Bridge) WriteValue(l *Line, level Level) error {
	if l.direction != Out {
		return ErrDirection{Op: "write", Direction: l.direction}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := b.kernel.WriteValue(l.id, level.Value()); err != nil {
		return kernelError("write value", l.id, "value", err)
	}
	l.update(level)
	return nil
}

// ReadValue reads the current level of the line.
//
// Only valid for input lines. The cached level of the line is updated to the
// level read.
func (b *Bridge) ReadValue(l *Line) (Level, error) {
	if l.direction != In {
		return Low, ErrDirection{Op: "read", Direction: l.direction}
	}
	level, _, err := b.readValue(l)
	return level, err
}

// readValue reads the line value and reports if the cached level changed.
func (b *Bridge) readValue(l *Line) (Level, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vs, err := b.kernel.ReadValue(l.id)
	if err != nil {
		return l.level, false, kernelError("read value", l.id, "value", err)
	}
	level, err := ParseLevel(vs)
	if err != nil {
		return l.level, false, ErrIO{Op: "parse value", ID: l.id, Err: err}
	}
	return level, l.update(level), nil
}

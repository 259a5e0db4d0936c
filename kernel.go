// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge

// Kernel provides access to the resources of exported GPIO lines, keyed by
// kernel line number.
//
// Values are returned and accepted without the trailing newline.
//
// Errors for missing resources must match fs.ErrNotExist, and errors for
// insufficient permissions must match fs.ErrPermission, when tested with
// errors.Is.
//
// The sysfs package provides the implementation for the Linux sysfs GPIO
// interface, and the mockup package provides an in-memory implementation
// for testing.
type Kernel interface {
	// ReadDirection returns the exported direction of the line, "in" or
	// "out".
	ReadDirection(id int) (string, error)

	// ReadValue returns the current value of the line, "0" or "1".
	ReadValue(id int) (string, error)

	// WriteValue sets the value of the line.
	WriteValue(id int, value string) error

	// CheckRead returns an error if the value of the line cannot be read.
	CheckRead(id int) error

	// CheckWrite returns an error if the value of the line cannot be
	// written.
	CheckWrite(id int) error
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package sysfs provides access to GPIO lines exported through the Linux
// sysfs GPIO interface.
//
// Each exported line N is represented by a directory gpioN under the sysfs
// root, containing the line direction and value attributes.
package sysfs

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DefaultRoot is the location of the sysfs GPIO interface.
const DefaultRoot = "/sys/class/gpio"

// Kernel provides access to the attributes of exported lines.
type Kernel struct {
	root string
}

// Option defines the interface required to provide a Kernel option.
type Option interface {
	applyOption(*Kernel)
}

// RootOption specifies the location of the sysfs GPIO interface.
type RootOption string

// WithRoot specifies the location of the sysfs GPIO interface.
//
// This is typically only required for testing.
func WithRoot(root string) RootOption {
	return RootOption(root)
}

func (o RootOption) applyOption(k *Kernel) {
	k.root = string(o)
}

// New creates a Kernel for the sysfs GPIO interface.
func New(options ...Option) *Kernel {
	k := Kernel{root: DefaultRoot}
	for _, option := range options {
		option.applyOption(&k)
	}
	return &k
}

// Root returns the location of the sysfs GPIO interface.
func (k *Kernel) Root() string {
	return k.root
}

// LinePath returns the path to the directory for the line.
func (k *Kernel) LinePath(id int) string {
	return filepath.Join(k.root, fmt.Sprintf("gpio%d", id))
}

func (k *Kernel) attrPath(id int, attr string) string {
	return filepath.Join(k.LinePath(id), attr)
}

// IsExported returns true if the line is exported.
func (k *Kernel) IsExported(id int) bool {
	fi, err := os.Stat(k.LinePath(id))
	return err == nil && fi.IsDir()
}

// ReadDirection returns the direction of the line, "in" or "out".
func (k *Kernel) ReadDirection(id int) (string, error) {
	return readAttr(k.attrPath(id, "direction"))
}

// ReadValue returns the value of the line, "0" or "1".
func (k *Kernel) ReadValue(id int) (string, error) {
	return readAttr(k.attrPath(id, "value"))
}

// WriteValue sets the value of the line.
func (k *Kernel) WriteValue(id int, value string) error {
	path := k.attrPath(id, "value")
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return errors.Wrap(err, "write value")
	}
	_, err = f.Write([]byte(value))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "write value")
}

// CheckRead returns an error if the process cannot read the value of the
// line.
func (k *Kernel) CheckRead(id int) error {
	return access(k.attrPath(id, "value"), unix.R_OK)
}

// CheckWrite returns an error if the process cannot write the value of the
// line.
func (k *Kernel) CheckWrite(id int) error {
	return access(k.attrPath(id, "value"), unix.W_OK)
}

func access(path string, mode uint32) error {
	err := unix.Access(path, mode)
	return errors.Wrapf(err, "access %s", path)
}

// readAttr returns the first line of the attribute, without the trailing
// newline.
func readAttr(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "read")
	}
	defer f.Close()
	s, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && (err != io.EOF || len(s) == 0) {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return strings.TrimSuffix(s, "\n"), nil
}

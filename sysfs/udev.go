// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package sysfs

import (
	"fmt"
	"time"

	"github.com/pilebones/go-udev/netlink"
	"github.com/pkg/errors"
)

// ErrTimeout indicates the line was not exported within the timeout.
var ErrTimeout = errors.New("timeout waiting for export")

// exportMonitor receives the udev events generated by exporting a line.
type exportMonitor struct {
	conn   *netlink.UEventConn
	queue  chan netlink.UEvent
	errors chan error
	quit   chan struct{}
}

// exportMatcher matches the udev event generated when line id is exported.
func exportMatcher(id int) *netlink.RuleDefinition {
	action := "add"
	return &netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "gpio",
			"DEVPATH":   fmt.Sprintf("/gpio%d$", id),
		}}
}

func newExportMonitor(id int) (*exportMonitor, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, errors.Wrap(err, "unable to connect to Netlink Kobject UEvent socket")
	}
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, exportMatcher(id))
	return &exportMonitor{conn: conn, queue: queue, errors: errs, quit: quit}, nil
}

// close releases the monitor in the background, as the monitor goroutine
// only sees the quit request between events.
func (m *exportMonitor) close() {
	m.conn.Close()
	go func() {
		for {
			select {
			case m.quit <- struct{}{}:
				return
			case <-m.queue:
			case <-m.errors:
			}
		}
	}()
}

// WaitExported waits for the line to be exported, by some other party, for
// up to the timeout.
//
// Returns immediately if the line is already exported.
func (k *Kernel) WaitExported(id int, timeout time.Duration) error {
	m, err := newExportMonitor(id)
	if err != nil {
		return err
	}
	defer m.close()
	// checked after the monitor is running so an export can't be missed.
	if k.IsExported(id) {
		return nil
	}
	select {
	case <-m.queue:
		return nil
	case err := <-m.errors:
		return errors.Wrap(err, "udev monitor")
	case <-time.After(timeout):
		if k.IsExported(id) {
			return nil
		}
		return ErrTimeout
	}
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiobridge"
)

func init() {
	monCmd.Flags().UintVarP(&monOpts.NumEvents, "num-events", "n", 0, "exit after n changes")
	monCmd.Flags().BoolVarP(&monOpts.Quiet, "quiet", "q", false, "don't display change details")
	monCmd.Flags().IntVar(&monOpts.Threshold, "failure-threshold", 0, "log consecutive sampling failures at error level every n failures")
	rootCmd.AddCommand(monCmd)
}

var (
	monCmd = &cobra.Command{
		Use:                   "mon [flags] <pin1>...",
		Short:                 "Monitor the level of an input line or lines",
		Long:                  `Wait for changes to the level of input lines and print them to standard output.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  mon,
		DisableFlagsInUseLine: true,
	}
	monOpts = struct {
		Quiet     bool
		NumEvents uint
		Threshold int
	}{}
)

// how often monWait checks the poll loop is still running.
var loopCheckPeriod = 100 * time.Millisecond

type change struct {
	line  *gpiobridge.Line
	level gpiobridge.Level
	time  time.Time
}

func mon(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd.Name())
	if err != nil {
		return err
	}
	b := gpiobridge.New(
		gpiobridge.WithKernel(newKernel()),
		gpiobridge.WithLogger(log),
		gpiobridge.WithPollPeriod(rootOpts.Period),
		gpiobridge.WithFailureThreshold(monOpts.Threshold),
	)
	chch := make(chan change, len(pp))
	done := make(chan struct{})
	o := gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
		select {
		case chch <- change{l, l.Level(), time.Now()}:
		case <-done:
		}
		return nil
	})
	for _, p := range pp {
		l, err := b.GetLine(p, gpiobridge.In)
		if err != nil {
			return fmt.Errorf("error requesting GPIO line: %s", err)
		}
		// prime the level so only subsequent changes are reported
		if _, err := b.ReadValue(l); err != nil {
			return fmt.Errorf("error reading GPIO line: %s", err)
		}
		if err := b.Register(l, o); err != nil {
			return err
		}
	}
	if err := b.Start(); err != nil {
		return err
	}
	defer func() {
		if err := b.Stop(); err != nil {
			logErr(cmd, err)
		}
	}()
	defer close(done)
	return monWait(b, chch)
}

// monWait reports changes until the event count is reached, a signal is
// received, or the poll loop fails.
func monWait(b *gpiobridge.Bridge, chch <-chan change) error {
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigdone)
	ticker := time.NewTicker(loopCheckPeriod)
	defer ticker.Stop()
	count := uint(0)
	for {
		select {
		case <-ticker.C:
			if b.State() == gpiobridge.Stopped {
				if err := b.Err(); err != nil {
					return err
				}
				return errors.New("poll loop stopped")
			}
		case ch := <-chch:
			if !monOpts.Quiet {
				fmt.Printf("event: %-6s %-7s %-4s %s\n",
					ch.line.Pin(),
					ch.line.Name(),
					ch.level,
					ch.time.Format(time.RFC3339Nano))
			}
			count++
			if monOpts.NumEvents > 0 && count >= monOpts.NumEvents {
				return nil
			}
		case <-sigdone:
			return nil
		}
	}
}

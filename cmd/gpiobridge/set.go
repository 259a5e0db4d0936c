// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiobridge"
)

func init() {
	setCmd.Flags().DurationVarP(&setOpts.Toggle, "toggle", "t", 0, "toggle the lines with this period until exit")
	setCmd.Flags().UintVarP(&setOpts.Count, "count", "c", 0, "exit after n toggles")
	setCmd.SetHelpTemplate(setCmd.HelpTemplate() + extendedSetHelp)
	rootCmd.AddCommand(setCmd)
}

var extendedSetHelp = `
Levels:
  0, low, off, false:   drive the line low
  1, high, on, true:    drive the line high

Note:
  The line retains its level on exit.
`

var (
	setCmd = &cobra.Command{
		Use:                   "set [flags] <pin1>=<level1>...",
		Short:                 "Set the level of an output line or lines",
		Long:                  `Set the level of an output line or lines, optionally toggling them until exit.`,
		Args:                  cobra.MinimumNArgs(1),
		PreRunE:               preset,
		RunE:                  set,
		DisableFlagsInUseLine: true,
	}
	setOpts = struct {
		Toggle time.Duration
		Count  uint
	}{}
)

func preset(cmd *cobra.Command, args []string) error {
	if setOpts.Toggle < 0 {
		return fmt.Errorf("toggle (%s) must be positive", setOpts.Toggle)
	}
	return nil
}

func set(cmd *cobra.Command, args []string) error {
	pp := []gpiobridge.PinSpec(nil)
	vv := []gpiobridge.Level(nil)
	for _, arg := range args {
		p, v, err := parsePinLevel(arg)
		if err != nil {
			return err
		}
		pp = append(pp, p)
		vv = append(vv, v)
	}
	b, err := newBridge(cmd)
	if err != nil {
		return err
	}
	ll := make([]*gpiobridge.Line, len(pp))
	for i, p := range pp {
		l, err := b.GetLine(p, gpiobridge.Out)
		if err != nil {
			return fmt.Errorf("error requesting GPIO line: %s", err)
		}
		ll[i] = l
	}
	if err := setLevels(b, ll, vv); err != nil {
		return err
	}
	if setOpts.Toggle == 0 {
		return nil
	}
	return toggle(b, ll)
}

func setLevels(b *gpiobridge.Bridge, ll []*gpiobridge.Line, vv []gpiobridge.Level) error {
	for i, l := range ll {
		if err := b.WriteValue(l, vv[i]); err != nil {
			return fmt.Errorf("error setting GPIO line: %s", err)
		}
	}
	return nil
}

func toggle(b *gpiobridge.Bridge, ll []*gpiobridge.Line) error {
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigdone)
	ticker := time.NewTicker(setOpts.Toggle)
	defer ticker.Stop()
	count := uint(0)
	for {
		select {
		case <-ticker.C:
			for _, l := range ll {
				if err := b.WriteValue(l, l.Level().Opposite()); err != nil {
					return fmt.Errorf("error toggling GPIO line: %s", err)
				}
			}
			count++
			if setOpts.Count > 0 && count >= setOpts.Count {
				return nil
			}
		case <-sigdone:
			return nil
		}
	}
}

func parsePinLevel(arg string) (gpiobridge.PinSpec, gpiobridge.Level, error) {
	pv := strings.Split(arg, "=")
	if len(pv) != 2 {
		return gpiobridge.PinSpec{}, gpiobridge.Low, fmt.Errorf("invalid pin=level '%s'", arg)
	}
	p, err := parsePin(pv[0])
	if err != nil {
		return gpiobridge.PinSpec{}, gpiobridge.Low, err
	}
	switch strings.ToLower(pv[1]) {
	case "0", "low", "off", "false":
		return p, gpiobridge.Low, nil
	case "1", "high", "on", "true":
		return p, gpiobridge.High, nil
	}
	return gpiobridge.PinSpec{}, gpiobridge.Low, fmt.Errorf("can't parse level '%s'", pv[1])
}

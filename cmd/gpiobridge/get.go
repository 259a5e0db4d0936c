// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiobridge"
)

func init() {
	getCmd.Flags().BoolVarP(&getOpts.Verbose, "verbose", "v", false, "display the line and level names")
	rootCmd.AddCommand(getCmd)
}

var (
	getCmd = &cobra.Command{
		Use:                   "get [flags] <pin1>...",
		Short:                 "Get the level of an input line or lines",
		Long:                  `Read the level of an input line or lines.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  get,
		DisableFlagsInUseLine: true,
	}
	getOpts = struct {
		Verbose bool
	}{}
)

func get(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args)
	if err != nil {
		return err
	}
	b, err := newBridge(cmd)
	if err != nil {
		return err
	}
	vv := make([]string, 0, len(pp))
	for _, p := range pp {
		l, err := b.GetLine(p, gpiobridge.In)
		if err != nil {
			return fmt.Errorf("error requesting GPIO line: %s", err)
		}
		lvl, err := b.ReadValue(l)
		if err != nil {
			return fmt.Errorf("error reading GPIO line: %s", err)
		}
		if getOpts.Verbose {
			vv = append(vv, fmt.Sprintf("%s(%s)=%s", l.Pin(), l.Name(), lvl))
		} else {
			vv = append(vv, lvl.Value())
		}
	}
	fmt.Println(strings.Join(vv, " "))
	return nil
}

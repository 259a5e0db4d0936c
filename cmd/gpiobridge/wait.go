// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	waitCmd.Flags().DurationVarP(&waitOpts.Timeout, "timeout", "t", 10*time.Second, "the longest to wait for each line")
	rootCmd.AddCommand(waitCmd)
}

var (
	waitCmd = &cobra.Command{
		Use:   "wait [flags] <pin1>...",
		Short: "Wait for a line or lines to be exported",
		Long: `Wait for a line or lines to be exported to userspace, such as by a udev rule or
a device tree overlay, before they are used.`,
		Args:                  cobra.MinimumNArgs(1),
		RunE:                  wait,
		DisableFlagsInUseLine: true,
	}
	waitOpts = struct {
		Timeout time.Duration
	}{}
)

func wait(cmd *cobra.Command, args []string) error {
	pp, err := parsePins(args)
	if err != nil {
		return err
	}
	k := newKernel()
	for _, p := range pp {
		if err := k.WaitExported(p.LineID(), waitOpts.Timeout); err != nil {
			return fmt.Errorf("error waiting for %s (gpio%d): %s", p, p.LineID(), err)
		}
	}
	return nil
}

// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/gpiobridge/device/beaglebone"
)

func init() {
	pinsCmd.Flags().BoolVarP(&pinsOpts.Exported, "exported", "e", false, "only list exported lines")
	rootCmd.AddCommand(pinsCmd)
}

var (
	pinsCmd = &cobra.Command{
		Use:                   "pins [flags]",
		Short:                 "List the BeagleBone header pins",
		Long:                  `List the BeagleBone header pins available as GPIO lines, and the direction of those exported.`,
		Args:                  cobra.NoArgs,
		RunE:                  pins,
		DisableFlagsInUseLine: true,
	}
	pinsOpts = struct {
		Exported bool
	}{}
)

func pins(cmd *cobra.Command, args []string) error {
	k := newKernel()
	for _, p := range beaglebone.Pins() {
		id := p.LineID()
		dir := "unexported"
		if k.IsExported(id) {
			d, err := k.ReadDirection(id)
			if err != nil {
				logErr(cmd, err)
				continue
			}
			dir = d
		} else if pinsOpts.Exported {
			continue
		}
		name := fmt.Sprintf("gpio%d", id)
		fmt.Printf("%-7s %-8s chip %d offset %2d  %s\n", p, name, p.Chip, p.Offset, dir)
	}
	return nil
}

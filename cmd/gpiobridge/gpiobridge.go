// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to access GPIO lines exported through sysfs.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warthog618/gpiobridge"
	"github.com/warthog618/gpiobridge/device/beaglebone"
	"github.com/warthog618/gpiobridge/sysfs"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.Root, "root", "r", sysfs.DefaultRoot, "location of the sysfs GPIO interface")
	pf.DurationVarP(&rootOpts.Period, "period", "p", gpiobridge.DefaultPollPeriod, "delay between samples of monitored lines")
	pf.StringVar(&rootOpts.LogLevel, "log-level", "warning", "the level of log messages to display")
}

var (
	rootCmd = &cobra.Command{
		Use:   "gpiobridge",
		Short: "gpiobridge is a utility to access GPIO lines",
		Long:  "gpiobridge is a utility to access GPIO lines exported through the Linux sysfs GPIO interface",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootOpts = struct {
		Root     string
		Period   time.Duration
		LogLevel string
	}{}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newLogger(name string) (*logrus.Entry, error) {
	level, err := logrus.ParseLevel(rootOpts.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	f.PrefixPadding = 20
	f.SpacePadding = 50
	logger.SetFormatter(f)
	return logger.WithField("prefix", name), nil
}

func newBridge(cmd *cobra.Command) (*gpiobridge.Bridge, error) {
	log, err := newLogger(cmd.Name())
	if err != nil {
		return nil, err
	}
	return gpiobridge.New(
		gpiobridge.WithKernel(newKernel()),
		gpiobridge.WithLogger(log),
		gpiobridge.WithPollPeriod(rootOpts.Period),
	), nil
}

func newKernel() *sysfs.Kernel {
	return sysfs.New(sysfs.WithRoot(rootOpts.Root))
}

// parsePin accepts a BeagleBone header pin, such as P9.12, a kernel line
// name, such as gpio60, or a line number.
func parsePin(arg string) (gpiobridge.PinSpec, error) {
	if p, err := beaglebone.Pin(arg); err == nil {
		return p, nil
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(arg, "gpio"), 10, 32)
	if err != nil {
		return gpiobridge.PinSpec{}, fmt.Errorf("can't parse pin '%s'", arg)
	}
	return gpiobridge.PinSpec{
		Label:  fmt.Sprintf("gpio%d", id),
		Chip:   int(id / 32),
		Offset: int(id % 32),
	}, nil
}

func parsePins(args []string) ([]gpiobridge.PinSpec, error) {
	pp := []gpiobridge.PinSpec(nil)
	for _, arg := range args {
		p, err := parsePin(arg)
		if err != nil {
			return nil, err
		}
		pp = append(pp, p)
	}
	return pp, nil
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "gpiobridge %s: %s\n", cmd.Name(), err)
}

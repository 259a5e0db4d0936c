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
	"sync"
	"syscall"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/gpiobridge"
	"github.com/warthog618/gpiobridge/device/beaglebone"
	"github.com/warthog618/gpiobridge/sysfs"
)

// This example runs a work sequence on a set of LEDs, started by the green
// button and stopped by the blue (success) or red (failure) buttons.
// The default pin assignments are defined in loadConfig, but can be altered
// via configuration (env, flag or config file).
// The lines must already be exported with the appropriate directions.
func main() {
	cfg := loadConfig()
	b := gpiobridge.New(
		gpiobridge.WithKernel(sysfs.New(sysfs.WithRoot(cfg.MustGet("root").String()))),
		gpiobridge.WithPollPeriod(cfg.MustGet("period").Duration()))
	w, err := newWorker(b, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "buttons: %s\n", err)
		os.Exit(1)
	}
	if err := w.watchButtons(); err != nil {
		fmt.Fprintf(os.Stderr, "buttons: %s\n", err)
		os.Exit(1)
	}
	w.resetLeds()
	if err := b.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "buttons: %s\n", err)
		os.Exit(1)
	}
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	<-sigdone
	w.stopWork(nil)
	if err := b.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "buttons: %s\n", err)
	}
	w.resetLeds()
}

type worker struct {
	b    *gpiobridge.Bridge
	step time.Duration

	green, blue, red *gpiobridge.Line

	// work sequence
	green0, yellow0, yellow1, yellow2 *gpiobridge.Line

	// work outcome
	green1, red0 *gpiobridge.Line

	mu      sync.Mutex
	donech  chan struct{}
	exitch  chan struct{}
	stopper *gpiobridge.Line
}

func newWorker(b *gpiobridge.Bridge, cfg *config.Config) (*worker, error) {
	w := worker{b: b, step: cfg.MustGet("step").Duration()}
	buttons := []struct {
		key  string
		name string
		l    **gpiobridge.Line
	}{
		{"green", "Green", &w.green},
		{"blue", "Blue", &w.blue},
		{"red", "Red", &w.red},
	}
	for _, btn := range buttons {
		l, err := getLine(b, cfg.MustGet(btn.key).String(), gpiobridge.In)
		if err != nil {
			return nil, err
		}
		l.SetLabel(btn.name)
		*btn.l = l
	}
	leds := []struct {
		key string
		l   **gpiobridge.Line
	}{
		{"green0", &w.green0},
		{"yellow0", &w.yellow0},
		{"yellow1", &w.yellow1},
		{"yellow2", &w.yellow2},
		{"green1", &w.green1},
		{"red0", &w.red0},
	}
	for _, led := range leds {
		l, err := getLine(b, cfg.MustGet(led.key).String(), gpiobridge.Out)
		if err != nil {
			return nil, err
		}
		l.SetLabel(led.key)
		*led.l = l
	}
	return &w, nil
}

func getLine(b *gpiobridge.Bridge, name string, d gpiobridge.Direction) (*gpiobridge.Line, error) {
	p, err := beaglebone.Pin(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", name, err)
	}
	return b.GetLine(p, d)
}

func (w *worker) watchButtons() error {
	report := gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
		if l.Level().IsHigh() {
			fmt.Printf("User pressed %s button.\n", l.Label())
		} else {
			fmt.Printf("User released %s button.\n", l.Label())
		}
		return nil
	})
	start := gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
		if l.Level().IsHigh() {
			w.startWork()
		}
		return nil
	})
	stop := gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
		if l.Level().IsHigh() {
			w.stopWork(l)
		}
		return nil
	})
	for _, l := range []*gpiobridge.Line{w.red, w.blue, w.green} {
		if err := w.b.Register(l, report); err != nil {
			return err
		}
	}
	if err := w.b.Register(w.green, start); err != nil {
		return err
	}
	if err := w.b.Register(w.blue, stop); err != nil {
		return err
	}
	return w.b.Register(w.red, stop)
}

func (w *worker) write(ll []*gpiobridge.Line, level gpiobridge.Level) {
	for _, l := range ll {
		if err := w.b.WriteValue(l, level); err != nil {
			fmt.Fprintf(os.Stderr, "buttons: %s\n", err)
		}
	}
}

func (w *worker) resetLeds() {
	fmt.Println("Resetting leds...")
	w.write([]*gpiobridge.Line{w.green0, w.yellow0, w.yellow1, w.yellow2, w.green1, w.red0}, gpiobridge.Low)
}

func (w *worker) startWork() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.exitch != nil {
		select {
		case <-w.exitch:
		default:
			fmt.Println("Work already running!")
			return
		}
	}
	fmt.Println("Starting work...")
	w.resetLeds()
	w.stopper = nil
	w.donech = make(chan struct{})
	w.exitch = make(chan struct{})
	go w.work(w.donech, w.exitch)
}

// stopWork stops the work sequence, with the outcome determined by the
// button pressed.
func (w *worker) stopWork(btn *gpiobridge.Line) {
	w.mu.Lock()
	donech := w.donech
	exitch := w.exitch
	if donech == nil {
		w.mu.Unlock()
		return
	}
	select {
	case <-donech:
	default:
		w.stopper = btn
		close(donech)
	}
	w.mu.Unlock()
	select {
	case <-exitch:
	case <-time.After(2 * time.Second):
		fmt.Println("Work did not stop!")
	}
}

func (w *worker) work(donech <-chan struct{}, exitch chan<- struct{}) {
	defer close(exitch)
	w.write([]*gpiobridge.Line{w.green0}, gpiobridge.High)
	seq := []*gpiobridge.Line{w.yellow0, w.yellow1, w.yellow2}
	prev := seq[len(seq)-1]
	for i := 0; ; i = (i + 1) % len(seq) {
		w.write([]*gpiobridge.Line{prev}, gpiobridge.Low)
		w.write([]*gpiobridge.Line{seq[i]}, gpiobridge.High)
		prev = seq[i]
		select {
		case <-donech:
			w.finish()
			return
		case <-time.After(w.step):
		}
	}
}

func (w *worker) finish() {
	w.write([]*gpiobridge.Line{w.green0, w.yellow0, w.yellow1, w.yellow2}, gpiobridge.Low)
	w.mu.Lock()
	stopper := w.stopper
	w.mu.Unlock()
	switch stopper {
	case nil:
		fmt.Println("Work interrupted.")
	case w.blue:
		fmt.Println("Work completed successfully!")
		w.write([]*gpiobridge.Line{w.red0}, gpiobridge.Low)
		w.write([]*gpiobridge.Line{w.green1}, gpiobridge.High)
	default:
		fmt.Println("Work failed!")
		w.write([]*gpiobridge.Line{w.green1}, gpiobridge.Low)
		w.write([]*gpiobridge.Line{w.red0}, gpiobridge.High)
	}
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"root":    sysfs.DefaultRoot,
		"period":  "50ms",
		"step":    "250ms",
		"green":   beaglebone.P8_07.Label,
		"blue":    beaglebone.P8_08.Label,
		"red":     beaglebone.P8_09.Label,
		"green0":  beaglebone.P8_10.Label,
		"yellow0": beaglebone.P8_11.Label,
		"yellow1": beaglebone.P8_12.Label,
		"yellow2": beaglebone.P8_14.Label,
		"green1":  beaglebone.P8_15.Label,
		"red0":    beaglebone.P8_16.Label,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'c', Name: "config-file"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		env.New(env.WithEnvPrefix("BUTTONS_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "buttons.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}

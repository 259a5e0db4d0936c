// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package beaglebone provides convenience mappings from BeagleBone Black
// header pin names to GPIO chips and offsets.
//
// Not all header pins can be used as GPIO lines; only those that can are
// defined.
package beaglebone

import (
	"errors"
	"sort"
	"strings"

	"github.com/warthog618/gpiobridge"
)

// Header pins, named by header and pin number.
//
// P9.41 and P9.42 are each connected to two GPIO lines, distinguished by an
// A or B suffix.
var (
	P8_03  = gpiobridge.PinSpec{Label: "P8.03", Chip: 1, Offset: 6}
	P8_04  = gpiobridge.PinSpec{Label: "P8.04", Chip: 1, Offset: 7}
	P8_05  = gpiobridge.PinSpec{Label: "P8.05", Chip: 1, Offset: 2}
	P8_06  = gpiobridge.PinSpec{Label: "P8.06", Chip: 1, Offset: 3}
	P8_07  = gpiobridge.PinSpec{Label: "P8.07", Chip: 2, Offset: 2}
	P8_08  = gpiobridge.PinSpec{Label: "P8.08", Chip: 2, Offset: 3}
	P8_09  = gpiobridge.PinSpec{Label: "P8.09", Chip: 2, Offset: 5}
	P8_10  = gpiobridge.PinSpec{Label: "P8.10", Chip: 2, Offset: 4}
	P8_11  = gpiobridge.PinSpec{Label: "P8.11", Chip: 1, Offset: 13}
	P8_12  = gpiobridge.PinSpec{Label: "P8.12", Chip: 1, Offset: 12}
	P8_13  = gpiobridge.PinSpec{Label: "P8.13", Chip: 0, Offset: 23}
	P8_14  = gpiobridge.PinSpec{Label: "P8.14", Chip: 0, Offset: 26}
	P8_15  = gpiobridge.PinSpec{Label: "P8.15", Chip: 1, Offset: 15}
	P8_16  = gpiobridge.PinSpec{Label: "P8.16", Chip: 1, Offset: 14}
	P8_17  = gpiobridge.PinSpec{Label: "P8.17", Chip: 0, Offset: 27}
	P8_18  = gpiobridge.PinSpec{Label: "P8.18", Chip: 2, Offset: 1}
	P8_19  = gpiobridge.PinSpec{Label: "P8.19", Chip: 0, Offset: 22}
	P8_20  = gpiobridge.PinSpec{Label: "P8.20", Chip: 1, Offset: 31}
	P8_21  = gpiobridge.PinSpec{Label: "P8.21", Chip: 1, Offset: 30}
	P8_22  = gpiobridge.PinSpec{Label: "P8.22", Chip: 1, Offset: 5}
	P8_23  = gpiobridge.PinSpec{Label: "P8.23", Chip: 1, Offset: 4}
	P8_24  = gpiobridge.PinSpec{Label: "P8.24", Chip: 1, Offset: 1}
	P8_25  = gpiobridge.PinSpec{Label: "P8.25", Chip: 1, Offset: 0}
	P8_26  = gpiobridge.PinSpec{Label: "P8.26", Chip: 1, Offset: 29}
	P8_27  = gpiobridge.PinSpec{Label: "P8.27", Chip: 2, Offset: 22}
	P8_28  = gpiobridge.PinSpec{Label: "P8.28", Chip: 2, Offset: 24}
	P8_29  = gpiobridge.PinSpec{Label: "P8.29", Chip: 2, Offset: 23}
	P8_30  = gpiobridge.PinSpec{Label: "P8.30", Chip: 2, Offset: 25}
	P8_31  = gpiobridge.PinSpec{Label: "P8.31", Chip: 0, Offset: 10}
	P8_32  = gpiobridge.PinSpec{Label: "P8.32", Chip: 0, Offset: 11}
	P8_33  = gpiobridge.PinSpec{Label: "P8.33", Chip: 0, Offset: 9}
	P8_34  = gpiobridge.PinSpec{Label: "P8.34", Chip: 2, Offset: 17}
	P8_35  = gpiobridge.PinSpec{Label: "P8.35", Chip: 0, Offset: 8}
	P8_36  = gpiobridge.PinSpec{Label: "P8.36", Chip: 2, Offset: 16}
	P8_37  = gpiobridge.PinSpec{Label: "P8.37", Chip: 2, Offset: 14}
	P8_38  = gpiobridge.PinSpec{Label: "P8.38", Chip: 2, Offset: 15}
	P8_39  = gpiobridge.PinSpec{Label: "P8.39", Chip: 2, Offset: 12}
	P8_40  = gpiobridge.PinSpec{Label: "P8.40", Chip: 2, Offset: 13}
	P8_41  = gpiobridge.PinSpec{Label: "P8.41", Chip: 2, Offset: 10}
	P8_42  = gpiobridge.PinSpec{Label: "P8.42", Chip: 2, Offset: 11}
	P8_43  = gpiobridge.PinSpec{Label: "P8.43", Chip: 2, Offset: 8}
	P8_44  = gpiobridge.PinSpec{Label: "P8.44", Chip: 2, Offset: 9}
	P8_45  = gpiobridge.PinSpec{Label: "P8.45", Chip: 2, Offset: 6}
	P8_46  = gpiobridge.PinSpec{Label: "P8.46", Chip: 2, Offset: 7}
	P9_11  = gpiobridge.PinSpec{Label: "P9.11", Chip: 0, Offset: 30}
	P9_12  = gpiobridge.PinSpec{Label: "P9.12", Chip: 1, Offset: 28}
	P9_13  = gpiobridge.PinSpec{Label: "P9.13", Chip: 0, Offset: 31}
	P9_14  = gpiobridge.PinSpec{Label: "P9.14", Chip: 1, Offset: 18}
	P9_15  = gpiobridge.PinSpec{Label: "P9.15", Chip: 1, Offset: 16}
	P9_16  = gpiobridge.PinSpec{Label: "P9.16", Chip: 1, Offset: 19}
	P9_17  = gpiobridge.PinSpec{Label: "P9.17", Chip: 0, Offset: 5}
	P9_18  = gpiobridge.PinSpec{Label: "P9.18", Chip: 0, Offset: 4}
	P9_19  = gpiobridge.PinSpec{Label: "P9.19", Chip: 0, Offset: 13}
	P9_20  = gpiobridge.PinSpec{Label: "P9.20", Chip: 0, Offset: 12}
	P9_21  = gpiobridge.PinSpec{Label: "P9.21", Chip: 0, Offset: 3}
	P9_22  = gpiobridge.PinSpec{Label: "P9.22", Chip: 0, Offset: 2}
	P9_23  = gpiobridge.PinSpec{Label: "P9.23", Chip: 1, Offset: 17}
	P9_24  = gpiobridge.PinSpec{Label: "P9.24", Chip: 0, Offset: 15}
	P9_25  = gpiobridge.PinSpec{Label: "P9.25", Chip: 3, Offset: 21}
	P9_26  = gpiobridge.PinSpec{Label: "P9.26", Chip: 0, Offset: 14}
	P9_27  = gpiobridge.PinSpec{Label: "P9.27", Chip: 3, Offset: 19}
	P9_28  = gpiobridge.PinSpec{Label: "P9.28", Chip: 3, Offset: 17}
	P9_29  = gpiobridge.PinSpec{Label: "P9.29", Chip: 3, Offset: 15}
	P9_30  = gpiobridge.PinSpec{Label: "P9.30", Chip: 3, Offset: 16}
	P9_31  = gpiobridge.PinSpec{Label: "P9.31", Chip: 3, Offset: 14}
	P9_41A = gpiobridge.PinSpec{Label: "P9.41A", Chip: 0, Offset: 20}
	P9_41B = gpiobridge.PinSpec{Label: "P9.41B", Chip: 3, Offset: 20}
	P9_42A = gpiobridge.PinSpec{Label: "P9.42A", Chip: 0, Offset: 7}
	P9_42B = gpiobridge.PinSpec{Label: "P9.42B", Chip: 3, Offset: 18}
)

var pins = []gpiobridge.PinSpec{
	P8_03, P8_04, P8_05, P8_06, P8_07, P8_08, P8_09, P8_10, P8_11, P8_12, P8_13,
	P8_14, P8_15, P8_16, P8_17, P8_18, P8_19, P8_20, P8_21, P8_22, P8_23, P8_24,
	P8_25, P8_26, P8_27, P8_28, P8_29, P8_30, P8_31, P8_32, P8_33, P8_34, P8_35,
	P8_36, P8_37, P8_38, P8_39, P8_40, P8_41, P8_42, P8_43, P8_44, P8_45, P8_46,
	P9_11, P9_12, P9_13, P9_14, P9_15, P9_16, P9_17, P9_18, P9_19, P9_20, P9_21,
	P9_22, P9_23, P9_24, P9_25, P9_26, P9_27, P9_28, P9_29, P9_30, P9_31,
	P9_41A, P9_41B, P9_42A, P9_42B,
}

var pinNames = func() map[string]gpiobridge.PinSpec {
	m := make(map[string]gpiobridge.PinSpec, len(pins))
	for _, p := range pins {
		m[p.Label] = p
	}
	return m
}()

// ErrInvalid indicates the pin name does not match a known pin.
var ErrInvalid = errors.New("invalid pin name")

// Pin maps a pin name to the pin.
//
// Pin names are case insensitive and may be of the form P8.07, P8_07 or
// P8_7.
func Pin(s string) (gpiobridge.PinSpec, error) {
	s = strings.ToUpper(strings.Replace(s, "_", ".", 1))
	if p, ok := pinNames[s]; ok {
		return p, nil
	}
	// zero pad single digit pin numbers
	if len(s) == 4 && s[2] == '.' {
		if p, ok := pinNames[s[:3]+"0"+s[3:]]; ok {
			return p, nil
		}
	}
	return gpiobridge.PinSpec{}, ErrInvalid
}

// MustPin converts the string to the corresponding pin or panics if that is
// not possible.
func MustPin(s string) gpiobridge.PinSpec {
	p, err := Pin(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Pins returns all the pins that can be used as GPIO lines, ordered by
// header and pin number.
func Pins() []gpiobridge.PinSpec {
	pp := append([]gpiobridge.PinSpec(nil), pins...)
	sort.Slice(pp, func(i, j int) bool {
		return pp[i].Label < pp[j].Label
	})
	return pp
}

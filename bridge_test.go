// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package gpiobridge_test

import (
	"errors"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/gpiobridge"
	"github.com/warthog618/gpiobridge/mockup"
)

var (
	inPin    = gpiobridge.PinSpec{Label: "P9.11", Chip: 0, Offset: 30}
	inPin2   = gpiobridge.PinSpec{Label: "P9.13", Chip: 0, Offset: 31}
	outPin   = gpiobridge.PinSpec{Label: "P9.14", Chip: 1, Offset: 18}
	otherPin = gpiobridge.PinSpec{Label: "P9.15", Chip: 1, Offset: 16}
)

// a generous bound for anything the poll loop should do promptly.
const eventWait = time.Second

func newKernel() *mockup.Kernel {
	k := mockup.New()
	k.Export(inPin.LineID(), "in")
	k.Export(inPin2.LineID(), "in")
	k.Export(outPin.LineID(), "out")
	return k
}

func newBridge(t *testing.T, k gpiobridge.Kernel, options ...gpiobridge.Option) (*gpiobridge.Bridge, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts := []gpiobridge.Option{
		gpiobridge.WithKernel(k),
		gpiobridge.WithLogger(logger),
		gpiobridge.WithPollPeriod(time.Millisecond),
		gpiobridge.WithIdleTimeout(10 * time.Millisecond),
	}
	b := gpiobridge.New(append(opts, options...)...)
	t.Cleanup(func() { b.Stop() })
	return b, hook
}

func getLine(t *testing.T, b *gpiobridge.Bridge, pin gpiobridge.PinSpec, d gpiobridge.Direction) *gpiobridge.Line {
	t.Helper()
	l, err := b.GetLine(pin, d)
	require.Nil(t, err)
	require.NotNil(t, l)
	return l
}

func waitState(t *testing.T, b *gpiobridge.Bridge, s gpiobridge.State) {
	t.Helper()
	deadline := time.Now().Add(eventWait)
	for b.State() != s {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for state %s, in %s", s, b.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(eventWait)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitEvent(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(eventWait):
		t.Fatal("timeout waiting for notification")
	}
	return 0
}

func hasEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// recorder returns an observer that sends id to ch each time it is
// notified.
func recorder(id int, ch chan<- int) gpiobridge.Observer {
	return gpiobridge.ObserverFunc(func(*gpiobridge.Line) error {
		ch <- id
		return nil
	})
}

func TestNew(t *testing.T) {
	b := gpiobridge.New()
	require.NotNil(t, b)
	assert.Equal(t, gpiobridge.Stopped, b.State())
	assert.Nil(t, b.Err())
	assert.Equal(t, 0, b.Lines())
	assert.Equal(t, 0, b.Observed())
}

func TestGetLine(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)

	in := getLine(t, b, inPin, gpiobridge.In)
	assert.Equal(t, gpiobridge.In, in.Direction())
	out := getLine(t, b, outPin, gpiobridge.Out)
	assert.Equal(t, gpiobridge.Out, out.Direction())
	assert.Equal(t, 2, k.DirectionReads())
	assert.Equal(t, 2, b.Lines())

	// cached
	l := getLine(t, b, inPin, gpiobridge.In)
	assert.True(t, in == l)
	l = getLine(t, b, outPin, gpiobridge.Out)
	assert.True(t, out == l)

	// cached regardless of direction
	l = getLine(t, b, inPin, gpiobridge.Out)
	assert.True(t, in == l)
	assert.Equal(t, gpiobridge.In, l.Direction())

	// not revalidated
	k.Unexport(inPin.LineID())
	l = getLine(t, b, inPin, gpiobridge.In)
	assert.True(t, in == l)
	assert.Equal(t, 2, k.DirectionReads())
	assert.Equal(t, 2, b.Lines())
}

func TestGetLineErrors(t *testing.T) {
	patterns := []struct {
		name  string
		setup func(k *mockup.Kernel)
		pin   gpiobridge.PinSpec
		dir   gpiobridge.Direction
		err   error
	}{
		{"in as out",
			nil,
			inPin,
			gpiobridge.Out,
			gpiobridge.ErrConfiguration{Pin: inPin, Requested: gpiobridge.Out, Kernel: gpiobridge.In},
		},
		{"out as in",
			nil,
			outPin,
			gpiobridge.In,
			gpiobridge.ErrConfiguration{Pin: outPin, Requested: gpiobridge.In, Kernel: gpiobridge.Out},
		},
		{"not exported",
			nil,
			otherPin,
			gpiobridge.In,
			gpiobridge.ErrNotExported{ID: otherPin.LineID()},
		},
		{"bad direction",
			func(k *mockup.Kernel) { k.Export(otherPin.LineID(), "high") },
			otherPin,
			gpiobridge.In,
			gpiobridge.ErrIO{Op: "parse direction", ID: otherPin.LineID(), Err: gpiobridge.ErrParse{Value: "high"}},
		},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			k := newKernel()
			if p.setup != nil {
				p.setup(k)
			}
			b, _ := newBridge(t, k)
			l, err := b.GetLine(p.pin, p.dir)
			assert.Equal(t, p.err, err)
			assert.Nil(t, l)
			assert.Equal(t, 0, b.Lines())
		}
		t.Run(p.name, tf)
	}
}

func TestGetLinePermission(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)

	// no read for input
	require.Nil(t, k.Deny(inPin.LineID(), true, false))
	l, err := b.GetLine(inPin, gpiobridge.In)
	assert.Nil(t, l)
	require.IsType(t, gpiobridge.ErrPermission{}, err)
	assert.Equal(t, inPin.LineID(), err.(gpiobridge.ErrPermission).ID)
	assert.True(t, errors.Is(err, fs.ErrPermission))

	// no write for output
	require.Nil(t, k.Deny(outPin.LineID(), false, true))
	l, err = b.GetLine(outPin, gpiobridge.Out)
	assert.Nil(t, l)
	require.IsType(t, gpiobridge.ErrPermission{}, err)
	assert.Equal(t, 0, b.Lines())

	// write not required for input
	require.Nil(t, k.Deny(inPin.LineID(), false, true))
	getLine(t, b, inPin, gpiobridge.In)

	// read not required for output
	require.Nil(t, k.Deny(outPin.LineID(), true, false))
	getLine(t, b, outPin, gpiobridge.Out)
}

func TestGetLineConcurrent(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	var wg sync.WaitGroup
	ll := make([]*gpiobridge.Line, 8)
	for i := range ll {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ll[i], _ = b.GetLine(inPin, gpiobridge.In)
		}(i)
	}
	wg.Wait()
	require.NotNil(t, ll[0])
	for _, l := range ll {
		assert.True(t, ll[0] == l)
	}
	assert.Equal(t, 1, k.DirectionReads())
}

func TestWriteValue(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	out := getLine(t, b, outPin, gpiobridge.Out)

	for _, lvl := range []gpiobridge.Level{gpiobridge.High, gpiobridge.Low, gpiobridge.High} {
		err := b.WriteValue(out, lvl)
		assert.Nil(t, err)
		assert.Equal(t, lvl, out.Level())
		v, err := k.Value(outPin.LineID())
		assert.Nil(t, err)
		assert.Equal(t, int(lvl), v)
	}
	assert.Equal(t, 3, k.ValueWrites())

	// denied - level unchanged
	require.Nil(t, k.Deny(outPin.LineID(), false, true))
	err := b.WriteValue(out, gpiobridge.Low)
	assert.IsType(t, gpiobridge.ErrPermission{}, err)
	assert.Equal(t, gpiobridge.High, out.Level())

	// unexported - level unchanged
	k.Unexport(outPin.LineID())
	err = b.WriteValue(out, gpiobridge.Low)
	assert.Equal(t, gpiobridge.ErrNotExported{ID: outPin.LineID()}, err)
	assert.Equal(t, gpiobridge.High, out.Level())
}

func TestWriteValueInput(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	err := b.WriteValue(in, gpiobridge.High)
	assert.Equal(t, gpiobridge.ErrDirection{Op: "write", Direction: gpiobridge.In}, err)
	assert.Equal(t, gpiobridge.Low, in.Level())
	assert.Equal(t, 0, k.ValueWrites())
	v, err := k.Value(inPin.LineID())
	assert.Nil(t, err)
	assert.Equal(t, 0, v)
}

func TestReadValue(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)

	lvl, err := b.ReadValue(in)
	assert.Nil(t, err)
	assert.Equal(t, gpiobridge.Low, lvl)

	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	lvl, err = b.ReadValue(in)
	assert.Nil(t, err)
	assert.Equal(t, gpiobridge.High, lvl)
	assert.Equal(t, gpiobridge.High, in.Level())

	// bad value - level unchanged
	require.Nil(t, k.SetRawValue(inPin.LineID(), "x"))
	_, err = b.ReadValue(in)
	assert.Equal(t, gpiobridge.ErrIO{Op: "parse value", ID: inPin.LineID(), Err: gpiobridge.ErrParse{Value: "x"}}, err)
	var pe gpiobridge.ErrParse
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "x", pe.Value)
	assert.Equal(t, gpiobridge.High, in.Level())

	// read failure
	fail := errors.New("bus error")
	require.Nil(t, k.FailReads(inPin.LineID(), fail))
	_, err = b.ReadValue(in)
	assert.Equal(t, gpiobridge.ErrIO{Op: "read value", ID: inPin.LineID(), Err: fail}, err)
	assert.True(t, errors.Is(err, fail))
	assert.Equal(t, gpiobridge.High, in.Level())
}

func TestReadValueOutput(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	out := getLine(t, b, outPin, gpiobridge.Out)
	_, err := b.ReadValue(out)
	assert.Equal(t, gpiobridge.ErrDirection{Op: "read", Direction: gpiobridge.Out}, err)
	assert.Equal(t, 0, k.ValueReads())
}

func TestRegister(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	out := getLine(t, b, outPin, gpiobridge.Out)
	ch := make(chan int, 1)
	o := recorder(1, ch)

	err := b.Register(out, o)
	assert.Equal(t, gpiobridge.ErrDirection{Op: "observe", Direction: gpiobridge.Out}, err)
	assert.Equal(t, 0, b.Observed())

	err = b.Register(in, o)
	assert.Nil(t, err)
	assert.Equal(t, 1, b.Observed())

	assert.True(t, b.Unregister(in, o))
	assert.Equal(t, 0, b.Observed())
	assert.False(t, b.Unregister(in, o))
	assert.False(t, b.Unregister(out, o))
}

// sliceObserver is a value observer that cannot be compared.
type sliceObserver struct {
	ids []int
}

func (o sliceObserver) Notify(*gpiobridge.Line) error {
	return nil
}

func TestRegisterNotComparable(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)

	err := b.Register(in, sliceObserver{})
	assert.Equal(t, gpiobridge.ErrObserverNotComparable, err)
	err = b.Register(in, nil)
	assert.Equal(t, gpiobridge.ErrObserverNotComparable, err)
	assert.Equal(t, 0, b.Observed())
	assert.False(t, b.Unregister(in, sliceObserver{}))
}

func TestUnregisterFirstMatch(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	ch := make(chan int, 3)
	o1 := recorder(1, ch)
	o2 := recorder(2, ch)
	require.Nil(t, b.Register(in, o1))
	require.Nil(t, b.Register(in, o2))
	require.Nil(t, b.Register(in, o1))

	assert.True(t, b.Unregister(in, o1))
	assert.Equal(t, 1, b.Observed())
	require.Nil(t, b.Start())
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	assert.Equal(t, 2, waitEvent(t, ch))
	assert.Equal(t, 1, waitEvent(t, ch))

	assert.True(t, b.Unregister(in, o1))
	assert.True(t, b.Unregister(in, o2))
	assert.Equal(t, 0, b.Observed())
	assert.False(t, b.Unregister(in, o2))
}

func TestObserversNotified(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	ch := make(chan int, 4)
	levels := make(chan gpiobridge.Level, 4)
	o1 := gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
		levels <- l.Level()
		ch <- 1
		return nil
	})
	require.Nil(t, b.Register(in, o1))
	require.Nil(t, b.Register(in, recorder(2, ch)))
	require.Nil(t, b.Start())
	waitState(t, b, gpiobridge.Sampling)

	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	assert.Equal(t, 1, waitEvent(t, ch))
	assert.Equal(t, 2, waitEvent(t, ch))
	assert.Equal(t, gpiobridge.High, <-levels)
	assert.Equal(t, gpiobridge.High, in.Level())

	// no change - no further notifications
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, len(ch))

	require.Nil(t, k.SetValue(inPin.LineID(), 0))
	assert.Equal(t, 1, waitEvent(t, ch))
	assert.Equal(t, 2, waitEvent(t, ch))
	assert.Equal(t, gpiobridge.Low, <-levels)
	assert.Nil(t, b.Stop())
}

func TestStartIdle(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	getLine(t, b, inPin, gpiobridge.In)
	require.Nil(t, b.Start())
	waitState(t, b, gpiobridge.Idle)
	// several idle timeouts
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, gpiobridge.Idle, b.State())
	assert.Equal(t, 0, k.ValueReads())
	assert.Nil(t, b.Stop())
	assert.Equal(t, gpiobridge.Stopped, b.State())
}

func TestRegisterWakesIdle(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k, gpiobridge.WithIdleTimeout(time.Hour))
	in := getLine(t, b, inPin, gpiobridge.In)
	require.Nil(t, b.Start())
	waitState(t, b, gpiobridge.Idle)

	ch := make(chan int, 1)
	require.Nil(t, b.Register(in, recorder(1, ch)))
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	assert.Equal(t, 1, waitEvent(t, ch))
}

func TestUnregisterIdles(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	o := recorder(1, make(chan int, 1))
	require.Nil(t, b.Register(in, o))
	require.Nil(t, b.Start())
	waitState(t, b, gpiobridge.Sampling)
	assert.True(t, b.Unregister(in, o))
	waitState(t, b, gpiobridge.Idle)
	reads := k.ValueReads()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, reads, k.ValueReads())
}

func TestStart(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	assert.Nil(t, b.Start())
	assert.Nil(t, b.Start())
	assert.NotEqual(t, gpiobridge.Stopped, b.State())
	assert.Nil(t, b.Stop())
	assert.Equal(t, gpiobridge.Stopped, b.State())

	// restart
	assert.Nil(t, b.Start())
	waitState(t, b, gpiobridge.Idle)
	assert.Nil(t, b.Stop())
}

func TestStop(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)

	// never started
	assert.Nil(t, b.Stop())
	assert.Nil(t, b.Stop())
	assert.Equal(t, gpiobridge.Stopped, b.State())

	require.Nil(t, b.Start())
	assert.Nil(t, b.Stop())
	assert.Nil(t, b.Stop())
	assert.Equal(t, gpiobridge.Stopped, b.State())
	assert.Nil(t, b.Err())
}

// blocker returns an observer that signals entered then waits for release.
func blocker(entered chan<- struct{}, release <-chan struct{}, done *bool) gpiobridge.Observer {
	return gpiobridge.ObserverFunc(func(*gpiobridge.Line) error {
		entered <- struct{}{}
		<-release
		*done = true
		return nil
	})
}

func TestStopCompletesCycle(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	done := false
	ch := make(chan int, 1)
	require.Nil(t, b.Register(in, blocker(entered, release, &done)))
	require.Nil(t, b.Register(in, recorder(2, ch)))
	require.Nil(t, b.Start())
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	select {
	case <-entered:
	case <-time.After(eventWait):
		t.Fatal("timeout waiting for observer")
	}
	assert.Equal(t, gpiobridge.Dispatching, b.State())

	stopped := make(chan error)
	go func() {
		stopped <- b.Stop()
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned before cycle completed")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	select {
	case err := <-stopped:
		assert.Nil(t, err)
	case <-time.After(eventWait):
		t.Fatal("timeout waiting for Stop")
	}
	assert.True(t, done)
	// the rest of the cycle was dispatched
	assert.Equal(t, 2, waitEvent(t, ch))
	assert.Equal(t, gpiobridge.Stopped, b.State())

	// second stop is a no-op
	assert.Nil(t, b.Stop())
}

func TestStopTimeout(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k, gpiobridge.WithStopTimeout(10*time.Millisecond))
	in := getLine(t, b, inPin, gpiobridge.In)
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	done := false
	require.Nil(t, b.Register(in, blocker(entered, release, &done)))
	require.Nil(t, b.Start())
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	select {
	case <-entered:
	case <-time.After(eventWait):
		t.Fatal("timeout waiting for observer")
	}
	start := time.Now()
	assert.Equal(t, gpiobridge.ErrStopTimeout, b.Stop())
	assert.True(t, time.Since(start) < eventWait)
	assert.Equal(t, gpiobridge.ErrStopping, b.Start())

	close(release)
	eventually(t, func() bool { return b.Stop() == nil })
	assert.True(t, done)
	assert.Equal(t, gpiobridge.Stopped, b.State())
}

func TestSamplingFailureIsolated(t *testing.T) {
	k := newKernel()
	b, hook := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	in2 := getLine(t, b, inPin2, gpiobridge.In)
	ch := make(chan int, 2)
	require.Nil(t, b.Register(in, recorder(1, ch)))
	require.Nil(t, b.Register(in2, recorder(2, ch)))
	require.Nil(t, k.FailReads(inPin.LineID(), errors.New("bus error")))
	require.Nil(t, b.Start())

	require.Nil(t, k.SetValue(inPin2.LineID(), 1))
	assert.Equal(t, 2, waitEvent(t, ch))
	assert.Equal(t, gpiobridge.Low, in.Level())
	assert.True(t, hasEntry(hook, logrus.WarnLevel, "sampling failed"))
	assert.NotEqual(t, gpiobridge.Stopped, b.State())

	// recovers
	require.Nil(t, k.FailReads(inPin.LineID(), nil))
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	assert.Equal(t, 1, waitEvent(t, ch))
	assert.Nil(t, b.Err())
}

func TestObserverFailureIsolated(t *testing.T) {
	k := newKernel()
	b, hook := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	in2 := getLine(t, b, inPin2, gpiobridge.In)
	ch := make(chan int, 2)
	failer := gpiobridge.ObserverFunc(func(*gpiobridge.Line) error {
		return errors.New("observer error")
	})
	panicker := gpiobridge.ObserverFunc(func(*gpiobridge.Line) error {
		panic("observer panic")
	})
	require.Nil(t, b.Register(in, failer))
	require.Nil(t, b.Register(in, panicker))
	require.Nil(t, b.Register(in, recorder(1, ch)))
	require.Nil(t, b.Register(in2, panicker))
	require.Nil(t, b.Register(in2, recorder(2, ch)))
	require.Nil(t, b.Start())
	waitState(t, b, gpiobridge.Sampling)

	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	require.Nil(t, k.SetValue(inPin2.LineID(), 1))
	got := []int{waitEvent(t, ch), waitEvent(t, ch)}
	assert.ElementsMatch(t, []int{1, 2}, got)
	assert.True(t, hasEntry(hook, logrus.WarnLevel, "observer failed"))
	assert.True(t, hasEntry(hook, logrus.WarnLevel, "observer panicked"))
	assert.NotEqual(t, gpiobridge.Stopped, b.State())
	assert.Nil(t, b.Err())
}

func TestFailureEscalation(t *testing.T) {
	k := newKernel()
	type escalation struct {
		l     *gpiobridge.Line
		count int
		err   error
	}
	ech := make(chan escalation, 16)
	eh := func(l *gpiobridge.Line, count int, err error) {
		select {
		case ech <- escalation{l, count, err}:
		default:
		}
	}
	b, hook := newBridge(t, k,
		gpiobridge.WithFailureThreshold(3),
		gpiobridge.WithEscalationHandler(eh))
	in := getLine(t, b, inPin, gpiobridge.In)
	require.Nil(t, b.Register(in, recorder(1, make(chan int, 1))))
	fail := errors.New("bus error")
	require.Nil(t, k.FailReads(inPin.LineID(), fail))
	require.Nil(t, b.Start())

	var e escalation
	select {
	case e = <-ech:
	case <-time.After(eventWait):
		t.Fatal("timeout waiting for escalation")
	}
	assert.True(t, e.l == in)
	assert.Equal(t, 3, e.count)
	assert.Equal(t, gpiobridge.ErrIO{Op: "read value", ID: inPin.LineID(), Err: fail}, e.err)
	assert.True(t, hasEntry(hook, logrus.ErrorLevel, "sampling failing repeatedly"))

	// repeated
	select {
	case e = <-ech:
	case <-time.After(eventWait):
		t.Fatal("timeout waiting for escalation")
	}
	assert.Equal(t, 6, e.count)
	assert.NotEqual(t, gpiobridge.Stopped, b.State())
}

// panicKernel panics on value reads while armed.
type panicKernel struct {
	*mockup.Kernel
	mu    sync.Mutex
	armed bool
}

func (k *panicKernel) arm(armed bool) {
	k.mu.Lock()
	k.armed = armed
	k.mu.Unlock()
}

func (k *panicKernel) ReadValue(id int) (string, error) {
	k.mu.Lock()
	armed := k.armed
	k.mu.Unlock()
	if armed {
		panic("kernel fault")
	}
	return k.Kernel.ReadValue(id)
}

func TestLoopFailure(t *testing.T) {
	k := &panicKernel{Kernel: newKernel()}
	b, hook := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	ch := make(chan int, 1)
	require.Nil(t, b.Register(in, recorder(1, ch)))
	k.arm(true)
	require.Nil(t, b.Start())

	eventually(t, func() bool { return b.Err() != nil })
	assert.Equal(t, gpiobridge.Stopped, b.State())
	assert.True(t, hasEntry(hook, logrus.ErrorLevel, "poll loop stopped"))

	// line still usable
	k.arm(false)
	_, err := b.ReadValue(in)
	assert.Nil(t, err)

	// supervisor restart
	require.Nil(t, b.Start())
	assert.Nil(t, b.Err())
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	assert.Equal(t, 1, waitEvent(t, ch))
	assert.Nil(t, b.Stop())
}

func TestReadWriteConcurrentWithPoll(t *testing.T) {
	k := newKernel()
	b, _ := newBridge(t, k)
	in := getLine(t, b, inPin, gpiobridge.In)
	out := getLine(t, b, outPin, gpiobridge.Out)
	require.Nil(t, b.Register(in, gpiobridge.ObserverFunc(func(l *gpiobridge.Line) error {
		return b.WriteValue(out, l.Level())
	})))
	require.Nil(t, b.Start())
	nop := gpiobridge.ObserverFunc(func(*gpiobridge.Line) error { return nil })
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				k.SetValue(inPin.LineID(), (i+j)%2)
				b.ReadValue(in)
				b.Register(in, nop)
				b.Unregister(in, nop)
			}
		}(i)
	}
	wg.Wait()
	// only the poll loop reads from here, so the final edge is detected
	require.Nil(t, k.SetValue(inPin.LineID(), 0))
	eventually(t, func() bool { return in.Level() == gpiobridge.Low })
	require.Nil(t, k.SetValue(inPin.LineID(), 1))
	eventually(t, func() bool { return out.Level() == gpiobridge.High })
	assert.Nil(t, b.Stop())
}

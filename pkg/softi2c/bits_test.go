package softi2c

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/hal"
)

func newSimBus(t *testing.T, w *wire, timeout time.Duration) *Bus {
	t.Helper()
	b, err := New(w.lines(), Config{Delay: NoDelay, StretchTimeout: timeout})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestNewRequiresLines(t *testing.T) {
	if _, err := New(BusLines{}, Config{}); err == nil {
		t.Fatal("expected error for missing lines")
	}
}

func TestWriteByteBitOrder(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 0)

	for v := 0; v < 256; v++ {
		if err := b.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		w.reset()
		_ = b.WriteByte(byte(v))
		_, samples := w.snapshot()
		if len(samples) != 9 {
			t.Fatalf("byte %#02x: got %d clock pulses, want 9", v, len(samples))
		}
		for i := 0; i < 8; i++ {
			want := v&(0x80>>uint(i)) != 0
			if samples[i] != want {
				t.Fatalf("byte %#02x: bit %d on wire = %v, want %v", v, 7-i, samples[i], want)
			}
		}
		if err := b.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	}
}

func TestWriteByteNack(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 0)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x42 << 1); !errors.Is(err, ErrAckFailure) {
		t.Fatalf("WriteByte to absent device: got %v, want ErrAckFailure", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68 << 1); err != nil {
		t.Fatalf("WriteByte to present device: %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestReadByteValues(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 0)

	for v := 0; v < 256; v++ {
		if err := b.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}
		w.present(byte(v))
		got, err := b.ReadByte(false)
		if err != nil {
			t.Fatalf("ReadByte: %v", err)
		}
		if got != byte(v) {
			t.Fatalf("ReadByte = %#02x, want %#02x", got, v)
		}
		if err := b.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	}
}

func TestReadByteAck(t *testing.T) {
	w := newWire(0x68)
	w.mem[0] = 0x11
	w.mem[1] = 0x22
	b := newSimBus(t, w, 0)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68<<1 | 1); err != nil {
		t.Fatal(err)
	}
	first, err := b.ReadByte(true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.ReadByte(false)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	if first != 0x11 || second != 0x22 {
		t.Fatalf("read %#02x %#02x, want 0x11 0x22", first, second)
	}
	events, _ := w.snapshot()
	want := []string{"S", "D1+", "R11+", "R22-", "P"}
	if !equalEvents(events, want) {
		t.Fatalf("events %v, want %v", events, want)
	}
}

func TestStartStopLeavesBusIdle(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 0)

	if !w.idle() {
		t.Fatal("bus not idle after New")
	}
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if w.idle() {
		t.Fatal("bus idle right after start")
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	if !w.idle() {
		t.Fatal("bus not idle after stop")
	}
	events, _ := w.snapshot()
	if !equalEvents(events, []string{"S", "P"}) {
		t.Fatalf("events %v, want [S P]", events)
	}
}

func TestStopTwice(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 0)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := b.Stop(); err != nil {
			t.Fatalf("Stop %d: %v", i, err)
		}
		if !w.idle() {
			t.Fatalf("bus not idle after stop %d", i)
		}
	}
	events, _ := w.snapshot()
	if events[len(events)-1] != "P" {
		t.Fatalf("last event %q, want P", events[len(events)-1])
	}
}

func TestReadByteWaitsForClockStretch(t *testing.T) {
	w := newWire(0x68)
	w.mem[0] = 0xA5
	b := newSimBus(t, w, time.Second)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68<<1 | 1); err != nil {
		t.Fatal(err)
	}
	w.reset()
	w.holdClock()
	go func() {
		time.Sleep(20 * time.Millisecond)
		w.releaseClock()
	}()

	got, err := b.ReadByte(false)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if got != 0xA5 {
		t.Fatalf("ReadByte = %#02x, want 0xA5", got)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.releaseAt.IsZero() {
		t.Fatal("clock was never released")
	}
	if len(w.sdaReads) == 0 {
		t.Fatal("data line never sampled")
	}
	for i, at := range w.sdaReads {
		if at.Before(w.releaseAt) {
			t.Fatalf("data sample %d taken %s before the clock was released", i, w.releaseAt.Sub(at))
		}
	}
}

// stretchLine wraps the master SCL line. Once armed, the peripheral holds the
// clock low for hold on the chosen rising edges, counted from 1.
type stretchLine struct {
	hal.Line
	w    *wire
	hold time.Duration

	mu      sync.Mutex
	rises   int
	on      map[int]bool
	pending sync.WaitGroup
}

func (l *stretchLine) arm(edges ...int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rises = 0
	l.on = make(map[int]bool)
	for _, e := range edges {
		l.on[e] = true
	}
}

func (l *stretchLine) Set(high bool) error {
	if high {
		l.mu.Lock()
		l.rises++
		stretch := l.on[l.rises]
		l.mu.Unlock()
		if stretch {
			l.w.holdClock()
			l.pending.Add(1)
			go func() {
				defer l.pending.Done()
				time.Sleep(l.hold)
				l.w.releaseClock()
			}()
		}
	}
	return l.Line.Set(high)
}

func newStretchBus(t *testing.T, w *wire) (*Bus, *stretchLine) {
	t.Helper()
	lines := w.lines()
	scl := &stretchLine{Line: lines.SCL, w: w, hold: 10 * time.Millisecond}
	lines.SCL = scl
	b, err := New(lines, Config{Delay: NoDelay, StretchTimeout: time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b, scl
}

func TestReadByteStretchOnLaterBit(t *testing.T) {
	w := newWire(0x68)
	w.mem[0] = 0xA5
	b, scl := newStretchBus(t, w)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68<<1 | 1); err != nil {
		t.Fatal(err)
	}
	scl.arm(5)
	start := time.Now()
	got, err := b.ReadByte(false)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	scl.pending.Wait()
	if got != 0xA5 {
		t.Fatalf("ReadByte = %#02x, want 0xA5", got)
	}
	if elapsed := time.Since(start); elapsed < scl.hold {
		t.Fatalf("ReadByte returned after %s, before the clock was released", elapsed)
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	events, _ := w.snapshot()
	want := []string{"S", "D1+", "RA5-", "P"}
	if !equalEvents(events, want) {
		t.Fatalf("events %v, want %v", events, want)
	}
}

func TestWriteByteStretchOnAckClock(t *testing.T) {
	w := newWire(0x68)
	b, scl := newStretchBus(t, w)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	scl.arm(9)
	start := time.Now()
	if err := b.WriteByte(0x68 << 1); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	scl.pending.Wait()
	if elapsed := time.Since(start); elapsed < scl.hold {
		t.Fatalf("WriteByte returned after %s, before the clock was released", elapsed)
	}
	// every data bit plus the acknowledge bit was sampled exactly once
	if _, samples := w.snapshot(); len(samples) != 9 || samples[8] {
		t.Fatalf("samples %v, want 9 with a low acknowledge bit", samples)
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestStopWaitsForClockStretch(t *testing.T) {
	w := newWire(0x68)
	b, scl := newStretchBus(t, w)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68 << 1); err != nil {
		t.Fatal(err)
	}
	scl.arm(1)
	if err := b.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	scl.pending.Wait()
	events, _ := w.snapshot()
	if events[len(events)-1] != "P" {
		t.Fatalf("events %v, want a stop condition last", events)
	}
	if !w.idle() {
		t.Fatal("bus not idle after stop")
	}
}

func TestStopStretchTimeoutReleasesData(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 2*time.Millisecond)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68 << 1); err != nil {
		t.Fatal(err)
	}
	w.holdClock()
	if err := b.Stop(); !errors.Is(err, ErrBusTimeout) {
		t.Fatalf("Stop: got %v, want ErrBusTimeout", err)
	}
	w.mu.Lock()
	released := w.masterSDA && w.masterSCL
	w.mu.Unlock()
	if !released {
		t.Fatal("master still drives a line after the failed stop")
	}
}

func TestReadByteStretchTimeout(t *testing.T) {
	w := newWire(0x68)
	b := newSimBus(t, w, 5*time.Millisecond)

	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteByte(0x68<<1 | 1); err != nil {
		t.Fatal(err)
	}
	w.holdClock()
	start := time.Now()
	if _, err := b.ReadByte(false); !errors.Is(err, ErrBusTimeout) {
		t.Fatalf("ReadByte: got %v, want ErrBusTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Fatalf("timed out after %s, before the bound", elapsed)
	}
}

func TestHalfPeriod(t *testing.T) {
	tests := []struct {
		freq uint32
		want time.Duration
	}{
		{0, 5 * time.Microsecond},
		{100000, 5 * time.Microsecond},
		{400000, 1250 * time.Nanosecond},
		{10000, 50 * time.Microsecond},
	}
	for _, tt := range tests {
		if got := halfPeriod(tt.freq); got != tt.want {
			t.Errorf("halfPeriod(%d) = %s, want %s", tt.freq, got, tt.want)
		}
	}
}

func TestSpinDelay(t *testing.T) {
	d := spinDelay(200 * time.Microsecond)
	start := time.Now()
	d()
	if elapsed := time.Since(start); elapsed < 200*time.Microsecond {
		t.Fatalf("spin delay returned after %s", elapsed)
	}
}

func equalEvents(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

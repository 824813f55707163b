package softi2c

import (
	"fmt"
	"sync"
	"time"
)

// wire simulates an open-drain SCL/SDA pair shared by the bus master and one
// register-file peripheral. A line reads high only when nobody pulls it low.
// The peripheral decodes start/stop conditions and bits from line transitions
// exactly as a real device would.

type simState int

const (
	stIdle simState = iota
	stAddr
	stRecv
	stAckOut
	stSend
	stAckIn
	stIgnore
)

type wire struct {
	mu sync.Mutex

	masterSCL, masterSDA bool
	slaveSCL, slaveSDA   bool

	addr    uint8
	mem     [256]byte
	reg     uint8
	state   simState
	next    simState
	bit     int
	shift   byte
	cur     byte
	ackIn   bool
	regNext bool

	events    []string
	samples   []bool      // SDA level on every SCL rising edge
	sdaReads  []time.Time // when the master sensed SDA
	releaseAt time.Time
}

func newWire(addr uint8) *wire {
	w := &wire{
		masterSCL: true,
		masterSDA: true,
		slaveSCL:  true,
		slaveSDA:  true,
		addr:      addr,
	}
	for i := range w.mem {
		w.mem[i] = 0xFF
	}
	return w
}

func (w *wire) lines() BusLines {
	return BusLines{SCL: &simLine{w: w, clock: true}, SDA: &simLine{w: w}}
}

func (w *wire) levels() (bool, bool) {
	return w.masterSCL && w.slaveSCL, w.masterSDA && w.slaveSDA
}

// update applies a drive change and feeds the resulting transitions to the peripheral
func (w *wire) update(change func()) {
	scl0, sda0 := w.levels()
	change()
	scl1, sda1 := w.levels()
	switch {
	case scl0 && scl1 && sda0 && !sda1:
		w.onStart()
	case scl0 && scl1 && !sda0 && sda1:
		w.onStop()
	case !scl0 && scl1:
		w.onRise(sda1)
	case scl0 && !scl1:
		w.onFall()
	}
}

func (w *wire) onStart() {
	if w.state == stIdle {
		w.events = append(w.events, "S")
	} else {
		w.events = append(w.events, "Sr")
	}
	w.state = stAddr
	w.bit = 0
	w.shift = 0
	w.slaveSDA = true
}

func (w *wire) onStop() {
	w.events = append(w.events, "P")
	w.state = stIdle
	w.slaveSDA = true
}

func (w *wire) onRise(sda bool) {
	w.samples = append(w.samples, sda)
	switch w.state {
	case stAddr, stRecv:
		w.shift <<= 1
		if sda {
			w.shift |= 1
		}
		w.bit++
	case stSend:
		w.bit++
	case stAckIn:
		w.ackIn = !sda
		mark := "-"
		if w.ackIn {
			mark = "+"
		}
		w.events = append(w.events, fmt.Sprintf("R%02X%s", w.cur, mark))
	}
}

func (w *wire) onFall() {
	switch w.state {
	case stAddr:
		if w.bit < 8 {
			return
		}
		if w.shift>>1 != w.addr {
			w.events = append(w.events, fmt.Sprintf("%02X-", w.shift))
			w.state = stIgnore
			return
		}
		w.events = append(w.events, fmt.Sprintf("%02X+", w.shift))
		w.slaveSDA = false
		if w.shift&1 == 1 {
			w.next = stSend
		} else {
			w.next = stRecv
			w.regNext = true
		}
		w.state = stAckOut
	case stRecv:
		if w.bit < 8 {
			return
		}
		w.events = append(w.events, fmt.Sprintf("%02X+", w.shift))
		if w.regNext {
			w.reg = w.shift
			w.regNext = false
		} else {
			w.mem[w.reg] = w.shift
			w.reg++
		}
		w.slaveSDA = false
		w.next = stRecv
		w.state = stAckOut
	case stAckOut:
		w.slaveSDA = true
		w.bit = 0
		w.shift = 0
		w.state = w.next
		if w.state == stSend {
			w.load()
		}
	case stSend:
		if w.bit >= 8 {
			w.slaveSDA = true
			w.state = stAckIn
			return
		}
		w.slaveSDA = (w.cur<<uint(w.bit))&0x80 != 0
	case stAckIn:
		if w.ackIn {
			w.bit = 0
			w.state = stSend
			w.load()
			return
		}
		w.state = stIgnore
	}
}

func (w *wire) load() {
	w.cur = w.mem[w.reg]
	w.reg++
	w.slaveSDA = w.cur&0x80 != 0
}

// present puts the peripheral straight into transmit mode with b as the next byte
func (w *wire) present(b byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = stSend
	w.bit = 0
	w.cur = b
	w.slaveSDA = b&0x80 != 0
}

func (w *wire) holdClock() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.update(func() { w.slaveSCL = false })
}

func (w *wire) releaseClock() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.releaseAt = time.Now()
	w.update(func() { w.slaveSCL = true })
}

func (w *wire) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = nil
	w.samples = nil
	w.sdaReads = nil
}

func (w *wire) snapshot() (events []string, samples []bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.events...), append([]bool(nil), w.samples...)
}

func (w *wire) idle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	scl, sda := w.levels()
	return scl && sda
}

type simLine struct {
	w     *wire
	clock bool
}

func (l *simLine) Set(high bool) error {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	l.w.update(func() {
		if l.clock {
			l.w.masterSCL = high
		} else {
			l.w.masterSDA = high
		}
	})
	return nil
}

func (l *simLine) Get() (bool, error) {
	l.w.mu.Lock()
	defer l.w.mu.Unlock()
	scl, sda := l.w.levels()
	if l.clock {
		return scl, nil
	}
	l.w.sdaReads = append(l.w.sdaReads, time.Now())
	return sda, nil
}

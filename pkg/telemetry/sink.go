// Package telemetry streams sensor samples as CSV lines over a serial port.
package telemetry

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/tarm/serial"
)

// DefaultBaud matches the 8N1 @ 9600 console of the firmware tools
const DefaultBaud = 9600

type Sink struct {
	port io.WriteCloser
	mu   sync.Mutex
	buf  []byte
}

// Open opens tty as an 8N1 port. A baud of 0 selects DefaultBaud.
func Open(tty string, baud int) (*Sink, error) {
	port, err := serial.OpenPort(portConfig(tty, baud))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", tty, err)
	}
	return newSink(port), nil
}

func portConfig(tty string, baud int) *serial.Config {
	if baud == 0 {
		baud = DefaultBaud
	}
	return &serial.Config{
		Name:     tty,
		Baud:     baud,
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	}
}

func newSink(port io.WriteCloser) *Sink {
	return &Sink{port: port}
}

// WriteSample writes one "tag,v1,v2,...\r\n" line
func (obj *Sink) WriteSample(tag string, values ...int16) error {
	obj.mu.Lock()
	defer obj.mu.Unlock()

	obj.buf = append(obj.buf[:0], tag...)
	for _, v := range values {
		obj.buf = append(obj.buf, ',')
		obj.buf = strconv.AppendInt(obj.buf, int64(v), 10)
	}
	obj.buf = append(obj.buf, '\r', '\n')
	if _, err := obj.port.Write(obj.buf); err != nil {
		return fmt.Errorf("failed to write %s sample: %w", tag, err)
	}
	return nil
}

func (obj *Sink) Close() error {
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.port.Close()
}

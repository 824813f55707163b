//go:build linux

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbalug7/go-softi2c/pkg/common"
	"github.com/mbalug7/go-softi2c/pkg/mpu6050"
	"github.com/mbalug7/go-softi2c/pkg/softi2c"
	"github.com/mbalug7/go-softi2c/pkg/telemetry"
)

var (
	chip     = flag.String("chip", "gpiochip0", "GPIO chip name")
	sclPin   = flag.Int("scl", 3, "SCL GPIO line")
	sdaPin   = flag.Int("sda", 2, "SDA GPIO line")
	sensePin = flag.Int("scl-sense", -1, "optional GPIO line wired to SCL for clock stretch edge events")
	freq     = flag.Uint("freq", softi2c.DefaultFrequency, "bus clock in Hz")
	tty      = flag.String("tty", "", "serial port for telemetry, e.g. /dev/ttyS0")
	baud     = flag.Int("baud", telemetry.DefaultBaud, "telemetry baud rate")
	period   = flag.Duration("period", 100*time.Millisecond, "sampling period")
	verbose  = flag.Bool("verbose", false, "log failed bus transactions")
	calib    = flag.Int("calibrate", 1000, "gyro samples averaged at rest for the zero rate offset, 0 skips")
)

func main() {
	flag.Parse()

	// SCL -> GPIO 3, SDA -> GPIO 2 on the RPi header, external pull-ups on the breakout
	opts := []common.Option{common.WithConsumer("mpu6050-demo")}
	if *sensePin >= 0 {
		opts = append(opts, common.WithClockSense(*sensePin))
	}
	lines, err := common.NewLines(*chip, *sclPin, *sdaPin, opts...)
	if err != nil {
		log.Fatal(err)
	}

	cfg := softi2c.Config{Frequency: uint32(*freq)}
	if *verbose {
		cfg.Logger = log.Default()
	}
	bus, err := softi2c.New(lines.BusLines(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Printf("failed to close bus: %s", err)
		}
	}()
	log.Printf("bus %s on %s SCL=%d SDA=%d", bus, *chip, *sclPin, *sdaPin)

	imu := mpu6050.New(bus, mpu6050.Address)
	if !imu.Connected() {
		log.Printf("no MPU6050 answering at %#02x", imu.Address())
		return
	}
	if err := imu.Configure(); err != nil {
		log.Printf("failed to configure MPU6050: %s", err)
		return
	}
	log.Println(imu.GetConfiguration())

	if *calib > 0 {
		// keep the sensor still while the offsets are measured
		offset, err := imu.CalibrateGyro(*calib)
		if err != nil {
			log.Printf("gyro calibration failed: %s", err)
		} else {
			log.Printf("gyro offset %+v", offset)
		}
	}
	offset := imu.GyroOffset()

	var sink *telemetry.Sink
	if *tty != "" {
		sink, err = telemetry.Open(*tty, *baud)
		if err != nil {
			log.Printf("telemetry disabled: %s", err)
		} else {
			defer sink.Close()
		}
	}

	signalInterruptChan := make(chan os.Signal, 1)
	signal.Notify(signalInterruptChan, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(*period)
	defer ticker.Stop()

	for {
		select {
		case <-signalInterruptChan:
			return
		case <-ticker.C:
		}
		m, err := imu.ReadMotion()
		if err != nil {
			log.Printf("failed to read motion: %s", err)
			continue
		}
		m.Gyro.X -= offset.X
		m.Gyro.Y -= offset.Y
		m.Gyro.Z -= offset.Z
		log.Printf("ACC %+v GYRO %+v TEMP %d", m.Accel, m.Gyro, m.Temperature)
		if sink == nil {
			continue
		}
		err = sink.WriteSample("imu",
			m.Accel.X, m.Accel.Y, m.Accel.Z,
			m.Gyro.X, m.Gyro.Y, m.Gyro.Z,
			m.Temperature)
		if err != nil {
			log.Printf("failed to send telemetry: %s", err)
		}
	}
}

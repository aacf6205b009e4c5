//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"motorboard/config"
	"motorboard/core"
)

//go:embed board.json
var boardJSON []byte

var (
	// Debug counters
	loopErrors       uint32
	usbWriteFailures uint32
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	// This prevents issues with watchdog persisting across resets
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	report := core.NewReporter(writeStatusLine)

	cfg, err := config.Load(boardJSON)
	if err != nil {
		report.Halt("config " + err.Error())
		halt(machine.LED)
	}

	report.StartAsync(cfg.ReportQueue)
	report.Boot(cfg.CaptureDepth, cfg.SampleBits, cfg.PWMWrap)

	pins := cfg.Pins
	gpio := NewRPGPIODriver()
	pwm := NewRP2040PWMDriver()

	// Driver asleep until the first enable
	if err := gpio.ConfigureOutput(core.GPIOPin(pins.DriverAwake)); err != nil {
		report.Halt("gpio " + err.Error())
		halt(machine.Pin(pins.Indicator))
	}
	gpio.SetPin(core.GPIOPin(pins.DriverAwake), false)

	bridge, err := core.NewBridge(pwm,
		core.PWMPin(pins.Forward), core.PWMPin(pins.Reverse),
		cfg.PWMWrap, cfg.InvertDirection)
	if err != nil {
		report.Halt("bridge " + err.Error())
		halt(machine.Pin(pins.Indicator))
	}

	store := core.NewSampleStore()
	adc := NewRPBlockADC()
	scheduler, err := core.NewScheduler(adc, store, cfg.Acquisition())
	if err == nil {
		err = scheduler.Start()
	}
	if err != nil {
		// Without acquisition there is no setpoint; never drive the bridge
		report.AcquisitionError(err)
		report.Halt("acquisition")
		halt(machine.Pin(pins.Indicator))
	}

	toggle := core.GPIOPin(pins.Toggle)
	if err := gpio.ConfigureInputPullDown(toggle); err != nil {
		report.Halt("gpio " + err.Error())
		halt(machine.Pin(pins.Indicator))
	}
	enable := core.NewEnableMachine(gpio, toggle, cfg.SettleDelay(), time.Sleep)

	faults, err := core.NewFaultMonitor(gpio, core.GPIOPin(pins.Fault), core.GPIOPin(pins.CurrentLimit))
	if err != nil {
		report.Halt("gpio " + err.Error())
		halt(machine.Pin(pins.Indicator))
	}

	loop, err := core.NewLoop(core.LoopConfig{
		Enable:      enable,
		Store:       store,
		Mapper:      cfg.Mapper(),
		Bridge:      bridge,
		Report:      report,
		Faults:      faults,
		GPIO:        gpio,
		DriverAwake: core.GPIOPin(pins.DriverAwake),
		Indicator:   core.GPIOPin(pins.Indicator),
	})
	if err != nil {
		report.Halt("loop " + err.Error())
		halt(machine.Pin(pins.Indicator))
	}

	loop.Run(func(err error) {
		loopErrors++
		report.LoopError(err)
	})
}

// halt leaves the bridge unpowered and blinks led forever. The status line
// explaining why has already been queued.
func halt(led machine.Pin) {
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}
}

//go:build rp2040

package main

import (
	"machine"
)

// InitUSB initializes USB serial communication
// On RP2040, machine.Serial is USB CDC, not UART
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}

// USBWriteBytes writes multiple bytes to USB
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}

// writeStatusLine sends one status line terminated with CRLF. With no
// host attached the line is discarded.
func writeStatusLine(line string) {
	buf := make([]byte, 0, len(line)+2)
	buf = append(buf, line...)
	buf = append(buf, '\r', '\n')

	written := 0
	for written < len(buf) {
		n, err := USBWriteBytes(buf[written:])
		if err != nil || n == 0 {
			// Write error - likely disconnect
			usbWriteFailures++
			return
		}
		written += n
	}
}

package core

import "errors"

// ADCChannelID identifies a hardware ADC input (AINSEL value on RP2040).
type ADCChannelID uint8

// ADCValue is one raw conversion as moved by the block transfer.
// 8-bit mode still lands in a 16-bit slot.
type ADCValue uint16

// ADCConfig is the subset of ADC setup the core cares about.
type ADCConfig struct {
	// SampleBits is the conversion width delivered to the buffer (8 or 12).
	SampleBits uint8

	// ClockDivider paces free-running conversion; 0 runs back to back.
	ClockDivider uint32
}

// ErrTransferUnavailable is returned when the block transfer engine
// cannot be claimed at startup.
var ErrTransferUnavailable = errors.New("block transfer engine unavailable")

// BlockADC is the free-running, block-transfer ADC the acquisition
// scheduler drives. Target code implements it over the ADC FIFO and a DMA
// channel; completion of a block is signalled through the handler set with
// SetCompletionHandler, from interrupt context.
type BlockADC interface {
	// Init powers up the ADC and configures the FIFO for block transfer.
	Init(cfg ADCConfig) error

	// ConfigureChannel puts the input's pin into analog mode.
	ConfigureChannel(ch ADCChannelID) error

	// Claim acquires the transfer engine. It is called once and never released.
	Claim() error

	// SetCompletionHandler registers the function run on block completion.
	SetCompletionHandler(fn func())

	// Arm selects the input and restarts the transfer into buf.
	Arm(ch ADCChannelID, buf []ADCValue)

	// Resume starts free-running conversion.
	Resume()

	// Halt stops free-running conversion and drains the FIFO.
	Halt()

	// Acknowledge clears the completion interrupt.
	Acknowledge()
}

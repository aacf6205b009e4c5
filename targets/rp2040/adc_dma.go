//go:build rp2040

package main

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/interrupt"
	"unsafe"

	"motorboard/core"
)

// ADC result FIFO, the DMA read address
const adcFIFOAddr = 0x4004c00c

// blockADC is the instance serviced by DMA_IRQ_0. There is one ADC.
var blockADC *RPBlockADC

// RPBlockADC implements core.BlockADC over the ADC free-running mode,
// its FIFO and one DMA channel.
type RPBlockADC struct {
	dma        *dmaChannel
	onComplete func()
	irq        interrupt.Interrupt
}

// NewRPBlockADC constructs the driver but does not Init() it yet.
func NewRPBlockADC() *RPBlockADC {
	return &RPBlockADC{}
}

// Init powers the ADC and routes conversions through the FIFO with DREQ
// enabled. 8-bit samples are right-shifted in the FIFO so each transfer
// carries one sample in the low byte of a halfword.
func (d *RPBlockADC) Init(cfg core.ADCConfig) error {
	machine.InitADC()

	// Stopped until Resume
	rp.ADC.CS.ClearBits(rp.ADC_CS_START_MANY)

	fcs := uint32(rp.ADC_FCS_EN | rp.ADC_FCS_DREQ_EN)
	fcs |= 1 << rp.ADC_FCS_THRESH_Pos
	switch cfg.SampleBits {
	case 8:
		fcs |= rp.ADC_FCS_SHIFT
	case 12:
	default:
		return errors.New("unsupported ADC sample width")
	}
	rp.ADC.FCS.Set(fcs)

	rp.ADC.DIV.Set(cfg.ClockDivider << rp.ADC_DIV_INT_Pos)

	d.drain()
	return nil
}

// ConfigureChannel puts an external input's pin into analog mode.
func (d *RPBlockADC) ConfigureChannel(ch core.ADCChannelID) error {
	var adc machine.ADC

	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return errors.New("unsupported ADC channel")
	}

	return adc.Configure(machine.ADCConfig{})
}

// Claim takes a DMA channel and hooks its completion to DMA_IRQ_0.
func (d *RPBlockADC) Claim() error {
	if d.dma != nil {
		return nil
	}
	ch, err := claimDMAChannel()
	if err != nil {
		return err
	}
	d.dma = ch
	blockADC = d

	d.irq = interrupt.New(rp.IRQ_DMA_IRQ_0, dmaIRQHandler)
	d.dma.enableIRQ0()
	d.irq.Enable()
	return nil
}

// SetCompletionHandler registers the function run from DMA_IRQ_0.
func (d *RPBlockADC) SetCompletionHandler(fn func()) {
	d.onComplete = fn
}

// Arm selects the input and restarts the DMA transfer into buf.
func (d *RPBlockADC) Arm(ch core.ADCChannelID, buf []core.ADCValue) {
	rp.ADC.CS.ReplaceBits(
		uint32(ch)<<rp.ADC_CS_AINSEL_Pos,
		rp.ADC_CS_AINSEL_Msk,
		0,
	)
	if len(buf) == 0 {
		return
	}
	d.dma.abort()
	d.dma.start(adcFIFOAddr, uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)), dmaTreqADC)
}

// Resume starts free-running conversion.
func (d *RPBlockADC) Resume() {
	rp.ADC.CS.SetBits(rp.ADC_CS_START_MANY)
}

// Halt stops free-running conversion, waits out the conversion in
// flight and empties the FIFO so the next block starts clean.
func (d *RPBlockADC) Halt() {
	rp.ADC.CS.ClearBits(rp.ADC_CS_START_MANY)
	for !rp.ADC.CS.HasBits(rp.ADC_CS_READY) {
	}
	d.drain()
}

// Acknowledge clears the channel's completion interrupt.
func (d *RPBlockADC) Acknowledge() {
	d.dma.clearIRQ0()
}

func (d *RPBlockADC) drain() {
	for rp.ADC.FCS.Get()&rp.ADC_FCS_LEVEL_Msk != 0 {
		rp.ADC.FIFO.Get()
	}
	// Sticky overflow/underflow flags are write 1 to clear
	rp.ADC.FCS.SetBits(rp.ADC_FCS_OVER | rp.ADC_FCS_UNDER)
}

func dmaIRQHandler(interrupt.Interrupt) {
	d := blockADC
	if d == nil || d.dma == nil || !d.dma.pendingIRQ0() {
		return
	}
	if d.onComplete == nil {
		d.dma.clearIRQ0()
		return
	}
	d.onComplete()
}

//go:build rp2040

package main

import (
	"runtime/volatile"
	"sync/atomic"
	"unsafe"

	"motorboard/core"
)

// RP2040 DMA peripheral memory map
const (
	dmaBase          = 0x50000000
	dmaChannelStride = 0x40
	dmaNumChannels   = 12

	dmaReadAddrOffset   = 0x00
	dmaWriteAddrOffset  = 0x04
	dmaTransCountOffset = 0x08
	dmaCtrlTrigOffset   = 0x0C

	dmaINTE0     = dmaBase + 0x404 // Interrupt enables for IRQ 0
	dmaINTS0     = dmaBase + 0x40C // Interrupt status for IRQ 0, write 1 to clear
	dmaCHANABORT = dmaBase + 0x444
)

// CTRL_TRIG fields
const (
	dmaCtrlEN           = 1 << 0
	dmaCtrlSizeHalfword = 1 << 2 // DATA_SIZE = 1
	dmaCtrlIncrWrite    = 1 << 5
	dmaCtrlChainToPos   = 11
	dmaCtrlChainToMask  = 0xF
	dmaCtrlTreqSelPos   = 15
	dmaCtrlTreqSelMask  = 0x3F
	dmaCtrlBusy         = 1 << 24

	dmaTreqADC = 36 // DREQ_ADC
)

var (
	dmaInte0     = (*volatile.Register32)(unsafe.Pointer(uintptr(dmaINTE0)))
	dmaInts0     = (*volatile.Register32)(unsafe.Pointer(uintptr(dmaINTS0)))
	dmaChanAbort = (*volatile.Register32)(unsafe.Pointer(uintptr(dmaCHANABORT)))

	// Bit n set when channel n is owned
	dmaClaimed atomic.Uint32
)

// dmaChannel is one claimed DMA channel.
type dmaChannel struct {
	num        uint8
	readAddr   *volatile.Register32
	writeAddr  *volatile.Register32
	transCount *volatile.Register32
	ctrlTrig   *volatile.Register32
}

// claimDMAChannel takes the lowest free channel. Channels are never
// released.
func claimDMAChannel() (*dmaChannel, error) {
	for {
		claimed := dmaClaimed.Load()
		num := uint8(0)
		for num < dmaNumChannels && claimed&(1<<num) != 0 {
			num++
		}
		if num == dmaNumChannels {
			return nil, core.ErrTransferUnavailable
		}
		if dmaClaimed.CompareAndSwap(claimed, claimed|1<<num) {
			return newDMAChannel(num), nil
		}
	}
}

func newDMAChannel(num uint8) *dmaChannel {
	base := uintptr(dmaBase + uint32(num)*dmaChannelStride)
	return &dmaChannel{
		num:        num,
		readAddr:   (*volatile.Register32)(unsafe.Pointer(base + dmaReadAddrOffset)),
		writeAddr:  (*volatile.Register32)(unsafe.Pointer(base + dmaWriteAddrOffset)),
		transCount: (*volatile.Register32)(unsafe.Pointer(base + dmaTransCountOffset)),
		ctrlTrig:   (*volatile.Register32)(unsafe.Pointer(base + dmaCtrlTrigOffset)),
	}
}

func (c *dmaChannel) mask() uint32 {
	return 1 << c.num
}

// control builds CTRL_TRIG for a halfword transfer from a fixed source
// into an incrementing destination, paced by treq. Chaining to itself
// disables chaining.
func (c *dmaChannel) control(treq uint32) uint32 {
	return dmaCtrlEN |
		dmaCtrlSizeHalfword |
		dmaCtrlIncrWrite |
		(uint32(c.num)&dmaCtrlChainToMask)<<dmaCtrlChainToPos |
		(treq&dmaCtrlTreqSelMask)<<dmaCtrlTreqSelPos
}

// start programs a transfer of count halfwords from src to dst and
// triggers it.
func (c *dmaChannel) start(src, dst uintptr, count uint32, treq uint32) {
	c.readAddr.Set(uint32(src))
	c.writeAddr.Set(uint32(dst))
	c.transCount.Set(count)
	c.ctrlTrig.Set(c.control(treq))
}

// abort stops an in-flight transfer and waits for the channel to idle.
func (c *dmaChannel) abort() {
	if !c.ctrlTrig.HasBits(dmaCtrlBusy) {
		return
	}
	dmaChanAbort.Set(c.mask())
	for dmaChanAbort.HasBits(c.mask()) {
	}
}

// enableIRQ0 routes the channel's completion to DMA_IRQ_0.
func (c *dmaChannel) enableIRQ0() {
	dmaInte0.SetBits(c.mask())
}

// pendingIRQ0 reports whether the channel raised DMA_IRQ_0.
func (c *dmaChannel) pendingIRQ0() bool {
	return dmaInts0.HasBits(c.mask())
}

// clearIRQ0 acknowledges the channel's DMA_IRQ_0 request.
func (c *dmaChannel) clearIRQ0() {
	dmaInts0.Set(c.mask())
}

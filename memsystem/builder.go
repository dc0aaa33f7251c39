package memsystem

import (
	"fmt"
	"log"

	"github.com/AIALRA-0/Ramulator2-ECC/addrmapper"
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/memctrl"
)

// A Builder can build memory systems.
type Builder struct {
	device      *dram.Device
	mapper      addrmapper.Mapper
	ctrlBuilder memctrl.Builder
	ctrlSet     bool
}

// MakeBuilder creates a memory system builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithDevice sets the DRAM device.
func (b Builder) WithDevice(d *dram.Device) Builder {
	b.device = d
	return b
}

// WithAddrMapper sets the address mapper.
func (b Builder) WithAddrMapper(m addrmapper.Mapper) Builder {
	b.mapper = m
	return b
}

// WithControllerBuilder sets the builder used for every channel's
// controller. The device and channel ID are filled in per channel.
func (b Builder) WithControllerBuilder(cb memctrl.Builder) Builder {
	b.ctrlBuilder = cb
	b.ctrlSet = true

	return b
}

// Build builds the memory system with one controller per device channel.
func (b Builder) Build(name string) *MemSystem {
	if b.device == nil || b.mapper == nil {
		log.Panic("memory system requires a device and an address mapper")
	}

	cb := b.ctrlBuilder
	if !b.ctrlSet {
		cb = memctrl.MakeBuilder()
	}

	m := &MemSystem{
		name:   name,
		device: b.device,
		mapper: b.mapper,
	}

	numChannels := b.device.Spec().Counts[0]
	for ch := 0; ch < numChannels; ch++ {
		ctrl := cb.
			WithDevice(b.device).
			WithChannelID(ch).
			Build(fmt.Sprintf("%s.Channel[%d]", name, ch))
		m.ctrls = append(m.ctrls, ctrl)
	}

	return m
}

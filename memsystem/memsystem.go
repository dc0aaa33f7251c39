// Package memsystem binds the address mapper, the DRAM device, and one
// controller per channel into the memory-domain component of a simulation.
package memsystem

import (
	"log"

	"github.com/AIALRA-0/Ramulator2-ECC/addrmapper"
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/memctrl"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A MemSystem owns the memory-clock side of the simulation. One Tick is one
// memory cycle: the device advances first, then every channel controller.
type MemSystem struct {
	name string

	device *dram.Device
	mapper addrmapper.Mapper
	ctrls  []*memctrl.Controller

	clk sim.Cycle
}

// Name returns the component name.
func (m *MemSystem) Name() string {
	return m.name
}

// Device returns the DRAM device.
func (m *MemSystem) Device() *dram.Device {
	return m.device
}

// Controller returns the controller of one channel.
func (m *MemSystem) Controller(channel int) *memctrl.Controller {
	return m.ctrls[channel]
}

// NumChannels returns the number of channels.
func (m *MemSystem) NumChannels() int {
	return len(m.ctrls)
}

// Tick advances the memory domain by one cycle.
func (m *MemSystem) Tick() {
	m.clk++

	m.device.Tick()
	for _, c := range m.ctrls {
		c.Tick()
	}
}

// Send maps the request's physical address, if it has not been mapped yet,
// and hands it to the owning channel's controller. It returns false when
// the controller's buffer is full.
func (m *MemSystem) Send(req *memctrl.Request) bool {
	if req.AddrVec == nil {
		if req.Addr < 0 {
			log.Panic("request carries neither an address nor a vector")
		}

		req.AddrVec = m.mapper.Map(uint64(req.Addr))
	}

	channel := req.AddrVec[0]
	if channel < 0 || channel >= len(m.ctrls) {
		log.Panicf("request addresses channel %d of %d",
			channel, len(m.ctrls))
	}

	return m.ctrls[channel].Send(req)
}

// Finalize finalizes every controller.
func (m *MemSystem) Finalize() {
	for _, c := range m.ctrls {
		c.Finalize()
	}
}

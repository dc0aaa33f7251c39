package memctrl

import (
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A RowPolicy observes the scheduling decision every cycle and may enqueue
// synthetic precharge requests on the priority buffer. It must never alter
// the chosen request.
type RowPolicy interface {
	Update(found bool, req *Request)
}

// OpenRowPolicy keeps rows open until necessity closes them. It is the
// default and does nothing.
type OpenRowPolicy struct{}

func (OpenRowPolicy) Update(bool, *Request) {}

// bankKey identifies one bank: channel, rank, bank group, bank.
type bankKey [4]int

type openBank struct {
	vec      dram.AddrVec
	lastUsed sim.Cycle
}

// TimeoutRowPolicy closes rows that have not been touched for a number of
// cycles by enqueueing a precharge on the priority buffer.
type TimeoutRowPolicy struct {
	ctrl    *Controller
	timeout sim.Cycle

	clk  sim.Cycle
	open map[bankKey]*openBank
}

// NewTimeoutRowPolicy creates a timeout row policy bound to a controller.
func NewTimeoutRowPolicy(ctrl *Controller, timeout int) *TimeoutRowPolicy {
	return &TimeoutRowPolicy{
		ctrl:    ctrl,
		timeout: sim.Cycle(timeout),
		open:    make(map[bankKey]*openBank),
	}
}

// Update tracks which banks hold open rows, and asks for a precharge once a
// bank sits idle past the timeout.
func (p *TimeoutRowPolicy) Update(found bool, req *Request) {
	p.clk++

	if found {
		meta := p.ctrl.device.Spec().Meta[req.Command]
		key := toBankKey(req.AddrVec)

		switch {
		case meta.IsOpening:
			p.open[key] = &openBank{
				vec:      req.AddrVec.Clone(),
				lastUsed: p.clk,
			}
		case meta.IsAccessing:
			if b, ok := p.open[key]; ok {
				b.lastUsed = p.clk
			}
		case meta.IsClosing, meta.IsRefresh:
			delete(p.open, key)
		}
	}

	for key, b := range p.open {
		if p.clk-b.lastUsed < p.timeout {
			continue
		}

		pre := b.vec.Clone()
		for i := p.ctrl.device.Spec().BankLevel + 1; i < len(pre); i++ {
			pre[i] = -1
		}

		if p.ctrl.PrioritySend(NewVecRequest(pre, dram.ReqPrecharge)) {
			delete(p.open, key)
		}
	}
}

func toBankKey(vec dram.AddrVec) bankKey {
	var k bankKey
	copy(k[:], vec[:4])

	return k
}

package memctrl

import (
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
)

// A Scheduler selects one request from a buffer. It returns the index of the
// chosen request, or -1 when the buffer is empty. Schedulers never mutate
// DRAM state; they only read readiness and write the request's Command field
// and scratchpad.
type Scheduler interface {
	BestRequest(buf *RequestBuffer) int
}

// FRFCFS is the first-ready, first-come-first-serve scheduler: ready
// requests beat non-ready ones, earlier arrivals break ties.
type FRFCFS struct {
	device *dram.Device
}

// NewFRFCFS creates an FR-FCFS scheduler for the given device.
func NewFRFCFS(device *dram.Device) *FRFCFS {
	return &FRFCFS{device: device}
}

// BestRequest refreshes every request's next needed command, then folds the
// buffer with the FR-FCFS comparator.
func (s *FRFCFS) BestRequest(buf *RequestBuffer) int {
	if buf.Size() == 0 {
		return -1
	}

	for i := 0; i < buf.Size(); i++ {
		req := buf.At(i)
		req.Command = s.device.PreqCommand(req.FinalCommand, req.AddrVec)
	}

	best := 0
	for i := 1; i < buf.Size(); i++ {
		best = s.compare(buf, best, i)
	}

	return best
}

func (s *FRFCFS) compare(buf *RequestBuffer, i, j int) int {
	r1 := buf.At(i)
	r2 := buf.At(j)

	ready1 := s.device.CheckReady(r1.Command, r1.AddrVec)
	ready2 := s.device.CheckReady(r2.Command, r2.AddrVec)

	if ready1 != ready2 {
		if ready1 {
			return i
		}

		return j
	}

	if r1.Arrive <= r2.Arrive {
		return i
	}

	return j
}

// Scratchpad slots the priority-aware scheduler fills per cycle.
const (
	fitsSlot  = 0
	readySlot = 1
)

// A BudgetAdvisor tells the priority-aware scheduler whether a request fits
// in the budget remaining before the next mandatory maintenance event.
type BudgetAdvisor interface {
	Fits(req *Request) bool
}

// PriorityAware schedules like FR-FCFS but lets a budget advisor veto
// requests that would collide with upcoming maintenance. Precedence is
// fits, then ready, then arrival order.
type PriorityAware struct {
	device  *dram.Device
	advisor BudgetAdvisor
}

// NewPriorityAware creates a priority-aware scheduler. advisor may be nil,
// in which case every request fits.
func NewPriorityAware(device *dram.Device, advisor BudgetAdvisor) *PriorityAware {
	return &PriorityAware{device: device, advisor: advisor}
}

// BestRequest memoizes the fits/ready predicates into each request's
// scratchpad, then folds with the fits > ready > FCFS comparator.
func (s *PriorityAware) BestRequest(buf *RequestBuffer) int {
	if buf.Size() == 0 {
		return -1
	}

	for i := 0; i < buf.Size(); i++ {
		req := buf.At(i)
		req.Command = s.device.PreqCommand(req.FinalCommand, req.AddrVec)

		req.Scratchpad[fitsSlot] = 1
		if s.advisor != nil && !s.advisor.Fits(req) {
			req.Scratchpad[fitsSlot] = 0
		}

		req.Scratchpad[readySlot] = 0
		if s.device.CheckReady(req.Command, req.AddrVec) {
			req.Scratchpad[readySlot] = 1
		}
	}

	best := 0
	for i := 1; i < buf.Size(); i++ {
		best = s.compare(buf, best, i)
	}

	return best
}

func (s *PriorityAware) compare(buf *RequestBuffer, i, j int) int {
	r1 := buf.At(i)
	r2 := buf.At(j)

	if r1.Scratchpad[fitsSlot] != r2.Scratchpad[fitsSlot] {
		if r1.Scratchpad[fitsSlot] == 1 {
			return i
		}

		return j
	}

	if r1.Scratchpad[readySlot] != r2.Scratchpad[readySlot] {
		if r1.Scratchpad[readySlot] == 1 {
			return i
		}

		return j
	}

	if r1.Arrive <= r2.Arrive {
		return i
	}

	return j
}

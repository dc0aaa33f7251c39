// Package memctrl implements the per-channel DRAM controller: request
// buffering, FR-FCFS scheduling, row policy, refresh, and the per-cycle
// command pipeline.
package memctrl

import (
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// ScratchpadSize is the number of per-request scratch slots schedulers may
// use to memoize per-cycle predicates.
const ScratchpadSize = 4

// A Request is one abstract memory access travelling through the controller.
type Request struct {
	ID string

	// Addr is the physical address, or -1 when the request was built from
	// an address vector directly.
	Addr    int64
	AddrVec dram.AddrVec

	Type     dram.RequestType
	SourceID int

	// Command is the next DRAM command the request needs; FinalCommand is
	// the command that completes it. Command is always reachable as a
	// prerequisite of FinalCommand.
	Command      dram.Command
	FinalCommand dram.Command

	Arrive sim.Cycle
	Depart sim.Cycle

	Scratchpad [ScratchpadSize]int

	// Callback runs when the request departs the controller.
	Callback func(*Request)

	// Payload carries collaborator context through the controller
	// untouched.
	Payload any

	statsUpdated bool
}

// NewRequest creates a request targeting a physical address. The address
// vector is filled in by the memory system's address mapper.
func NewRequest(addr int64, t dram.RequestType) *Request {
	return &Request{
		ID:           sim.GetIDGenerator().Generate(),
		Addr:         addr,
		Type:         t,
		SourceID:     -1,
		Command:      dram.CmdInvalid,
		FinalCommand: dram.CmdInvalid,
		Arrive:       sim.CycleNever,
		Depart:       sim.CycleNever,
	}
}

// NewVecRequest creates a request that already knows its address vector,
// e.g. refresh and precharge maintenance requests.
func NewVecRequest(vec dram.AddrVec, t dram.RequestType) *Request {
	r := NewRequest(-1, t)
	r.AddrVec = vec

	return r
}

// A RequestBuffer is an ordered request queue with a hard capacity.
// Insertion order is arrival order; schedulers may pick any element.
type RequestBuffer struct {
	name     string
	capacity int
	reqs     []*Request
}

// NewRequestBuffer creates a buffer with the given capacity.
func NewRequestBuffer(name string, capacity int) *RequestBuffer {
	return &RequestBuffer{
		name:     name,
		capacity: capacity,
	}
}

// Name returns the buffer name.
func (b *RequestBuffer) Name() string {
	return b.name
}

// Capacity returns the maximum number of requests the buffer holds.
func (b *RequestBuffer) Capacity() int {
	return b.capacity
}

// Size returns the current number of requests.
func (b *RequestBuffer) Size() int {
	return len(b.reqs)
}

// CanEnqueue reports whether one more request fits.
func (b *RequestBuffer) CanEnqueue() bool {
	return len(b.reqs) < b.capacity
}

// Enqueue appends a request, rejecting it when the buffer is full.
func (b *RequestBuffer) Enqueue(r *Request) bool {
	if len(b.reqs) >= b.capacity {
		return false
	}

	b.reqs = append(b.reqs, r)

	return true
}

// At returns the i-th request in arrival order.
func (b *RequestBuffer) At(i int) *Request {
	return b.reqs[i]
}

// Remove deletes the i-th request, keeping the order of the rest.
func (b *RequestBuffer) Remove(i int) {
	b.reqs = append(b.reqs[:i], b.reqs[i+1:]...)
}

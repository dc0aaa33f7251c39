package dram

import (
	"container/heap"
	"log"

	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A FutureAction is a state change that an action scheduled for a later
// cycle, e.g. banks returning to Closed when a refresh completes.
type FutureAction struct {
	When sim.Cycle
	Cmd  Command
	Vec  AddrVec
}

type futureActionQueue []FutureAction

func (q futureActionQueue) Len() int            { return len(q) }
func (q futureActionQueue) Less(i, j int) bool  { return q[i].When < q[j].When }
func (q futureActionQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *futureActionQueue) Push(x interface{}) { *q = append(*q, x.(FutureAction)) }

func (q *futureActionQueue) Pop() interface{} {
	old := *q
	n := len(old)
	a := old[n-1]
	*q = old[:n-1]

	return a
}

// A Device is a DRAM device model: the node tree for every channel plus the
// shared spec. It advances with the memory clock and answers the
// controller's five queries (issue, prerequisite, ready, row-hit,
// node-open).
type Device struct {
	name string
	spec *Spec

	channels []*Node
	clk      sim.Cycle

	futures   futureActionQueue
	cmdCounts [NumCommands]uint64
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Spec returns the device specification.
func (d *Device) Spec() *Spec {
	return d.spec
}

// Clk returns the current memory-domain cycle.
func (d *Device) Clk() sim.Cycle {
	return d.clk
}

// ReadLatency is the number of cycles between issuing RD and the data being
// available.
func (d *Device) ReadLatency() int {
	return d.spec.ReadLatency
}

// FinalCommand returns the command that completes a request of the given
// type. An unknown type is a bug in the caller.
func (d *Device) FinalCommand(t RequestType) Command {
	if t < 0 || t >= NumRequestTypes {
		log.Panicf("unknown request type %d", t)
	}

	return d.spec.FinalCommands[t]
}

// CommandCount returns how many times cmd has issued on this device.
func (d *Device) CommandCount(cmd Command) uint64 {
	return d.cmdCounts[cmd]
}

// Tick advances the device one memory cycle and applies all deferred state
// changes that have come due.
func (d *Device) Tick() {
	d.clk++

	for len(d.futures) > 0 && d.futures[0].When <= d.clk {
		a := heap.Pop(&d.futures).(FutureAction)
		d.channels[a.Vec[0]].updateStates(d, a.Cmd, a.Vec, d.clk)
	}
}

// ScheduleFutureAction defers a state change to a later cycle. Actions call
// this to model multi-cycle operations such as refresh.
func (d *Device) ScheduleFutureAction(a FutureAction) {
	heap.Push(&d.futures, a)
}

// IssueCommand applies a command to the device: state machine first, then
// timing, then the optional power hooks and the issue counters.
func (d *Device) IssueCommand(cmd Command, vec AddrVec) {
	root := d.channels[vec[0]]
	root.updateStates(d, cmd, vec, d.clk)
	root.updateTiming(cmd, vec, d.clk)

	if d.spec.PowerEnabled {
		root.updatePowers(d, cmd, vec, d.clk)
	}

	d.cmdCounts[cmd]++
}

// PreqCommand resolves the next command that must issue before cmd can, or
// cmd itself when the device state already allows it.
func (d *Device) PreqCommand(cmd Command, vec AddrVec) Command {
	return d.channels[vec[0]].preqCommand(cmd, vec, d.clk)
}

// CheckReady reports whether every node on the address path allows cmd to
// issue this cycle.
func (d *Device) CheckReady(cmd Command, vec AddrVec) bool {
	return d.channels[vec[0]].checkReady(cmd, vec, d.clk)
}

// CheckRowBufferHit reports whether cmd would hit the open row at its target
// bank.
func (d *Device) CheckRowBufferHit(cmd Command, vec AddrVec) bool {
	return d.channels[vec[0]].checkRowBufferHit(cmd, vec, d.clk)
}

// CheckNodeOpen reports whether the target bank has any row open.
func (d *Device) CheckNodeOpen(cmd Command, vec AddrVec) bool {
	return d.channels[vec[0]].checkNodeOpen(cmd, vec, d.clk)
}

// LevelSize returns the sibling count of a level by name, or -1.
func (d *Device) LevelSize(name string) int {
	return d.spec.LevelSize(name)
}

package dram

import (
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A Node is one element of the device hierarchy tree. Nodes exist for every
// level from channel down to bank; rows are tracked lazily in the bank's
// rowState map rather than as child nodes.
type Node struct {
	spec   *Spec
	parent *Node
	child  []*Node

	level int
	id    int

	state State

	// readyCycle[cmd] is the earliest cycle cmd may issue at this node.
	// CycleNever means unconstrained so far.
	readyCycle []sim.Cycle

	// history[cmd] is a bounded record of past issue cycles, newest first.
	// Slots that have never been filled hold CycleNever. Commands with no
	// windowed constraint at this level keep a nil history.
	history [][]sim.Cycle

	rowState map[int]State
}

func newNode(spec *Spec, parent *Node, level, id int) *Node {
	n := &Node{
		spec:   spec,
		parent: parent,
		level:  level,
		id:     id,
		state:  spec.InitStates[level],
	}

	n.readyCycle = make([]sim.Cycle, NumCommands)
	n.history = make([][]sim.Cycle, NumCommands)
	for cmd := Command(0); cmd < NumCommands; cmd++ {
		n.readyCycle[cmd] = sim.CycleNever

		window := spec.maxWindow(level, cmd)
		if window > 0 {
			n.history[cmd] = make([]sim.Cycle, window)
			for i := range n.history[cmd] {
				n.history[cmd][i] = sim.CycleNever
			}
		}
	}

	if level == spec.BankLevel {
		n.rowState = make(map[int]State)
	}

	nextLevel := level + 1
	if nextLevel == spec.RowLevel {
		return n
	}

	for i := 0; i < spec.Counts[nextLevel]; i++ {
		n.child = append(n.child, newNode(spec, n, nextLevel, i))
	}

	return n
}

// State returns the node's current state.
func (n *Node) State() State {
	return n.state
}

// SetState moves the node to a new state.
func (n *Node) SetState(s State) {
	n.state = s
}

// ID returns the node's index among its siblings.
func (n *Node) ID() int {
	return n.id
}

// Level returns the hierarchy level of the node.
func (n *Node) Level() int {
	return n.level
}

// Child returns the i-th child node.
func (n *Node) Child(i int) *Node {
	return n.child[i]
}

// OpenRow records a row as opened in the bank's row state.
func (n *Node) OpenRow(row int) {
	n.rowState[row] = StateOpened
}

// CloseRows drops all row state of the bank.
func (n *Node) CloseRows() {
	for row := range n.rowState {
		delete(n.rowState, row)
	}
}

// RowOpened reports whether the bank currently records the row as opened.
func (n *Node) RowOpened(row int) bool {
	return n.rowState[row] == StateOpened
}

// updateStates walks the tree applying the state actions of cmd, stopping at
// the command's scope level. A -1 child index broadcasts into all children.
func (n *Node) updateStates(dev *Device, cmd Command, vec AddrVec, clk sim.Cycle) {
	childID := -1
	if n.level+1 < len(vec) {
		childID = vec[n.level+1]
	}

	if action := n.spec.Actions[n.level][cmd]; action != nil {
		action(dev, n, cmd, vec, clk)
	}

	if n.level == n.spec.Scopes[cmd] || len(n.child) == 0 {
		return
	}

	if childID == -1 {
		for _, c := range n.child {
			c.updateStates(dev, cmd, vec, clk)
		}
	} else {
		n.child[childID].updateStates(dev, cmd, vec, clk)
	}
}

// updatePowers walks the optional power hooks the same way updateStates
// walks the actions.
func (n *Node) updatePowers(dev *Device, cmd Command, vec AddrVec, clk sim.Cycle) {
	childID := -1
	if n.level+1 < len(vec) {
		childID = vec[n.level+1]
	}

	if power := n.spec.Powers[n.level][cmd]; power != nil {
		power(dev, n, cmd, vec, clk)
	}

	if n.level == n.spec.Scopes[cmd] || len(n.child) == 0 {
		return
	}

	if childID == -1 {
		for _, c := range n.child {
			c.updatePowers(dev, cmd, vec, clk)
		}
	} else {
		n.child[childID].updatePowers(dev, cmd, vec, clk)
	}
}

// updateTiming pushes the issue of cmd at clk into the timing state of this
// node and its subtree. Sibling nodes of the addressed node only absorb the
// sibling-flagged edges and do not recurse.
func (n *Node) updateTiming(cmd Command, vec AddrVec, clk sim.Cycle) {
	if n.id != vec[n.level] && vec[n.level] != -1 {
		for _, t := range n.spec.TimingCons[n.level][cmd] {
			if !t.Sibling {
				continue
			}

			future := clk + sim.Cycle(t.Cycles)
			if future > n.readyCycle[t.To] {
				n.readyCycle[t.To] = future
			}
		}

		return
	}

	if h := n.history[cmd]; len(h) > 0 {
		copy(h[1:], h)
		h[0] = clk
	}

	for _, t := range n.spec.TimingCons[n.level][cmd] {
		if t.Sibling {
			continue
		}

		past := n.history[cmd][t.Window-1]
		if past == sim.CycleNever {
			continue
		}

		future := past + sim.Cycle(t.Cycles)
		if future > n.readyCycle[t.To] {
			n.readyCycle[t.To] = future
		}
	}

	// Timing propagates down unconditionally, including to nodes that are
	// siblings of the addressed child.
	for _, c := range n.child {
		c.updateTiming(cmd, vec, clk)
	}
}

// preqCommand descends along vec asking each level whether a prerequisite
// must issue before cmd. The first level that reports one wins.
func (n *Node) preqCommand(cmd Command, vec AddrVec, clk sim.Cycle) Command {
	if preq := n.spec.Preqs[n.level][cmd]; preq != nil {
		if p := preq(n, cmd, vec, clk); p != CmdInvalid {
			return p
		}
	}

	if len(n.child) == 0 {
		return cmd
	}

	return n.child[vec[n.level+1]].preqCommand(cmd, vec, clk)
}

// checkReady reports whether cmd may issue now at every node along vec. A
// broadcast descent requires all children to be ready.
func (n *Node) checkReady(cmd Command, vec AddrVec, clk sim.Cycle) bool {
	if n.readyCycle[cmd] != sim.CycleNever && clk < n.readyCycle[cmd] {
		return false
	}

	if n.level == n.spec.Scopes[cmd] || len(n.child) == 0 {
		return true
	}

	childID := vec[n.level+1]
	if childID == -1 {
		for _, c := range n.child {
			if !c.checkReady(cmd, vec, clk) {
				return false
			}
		}

		return true
	}

	return n.child[childID].checkReady(cmd, vec, clk)
}

// checkRowBufferHit descends along vec until a level defines a row-hit
// predicate for cmd.
func (n *Node) checkRowBufferHit(cmd Command, vec AddrVec, clk sim.Cycle) bool {
	childID := -1
	if n.level+1 < len(vec) {
		childID = vec[n.level+1]
	}

	if hit := n.spec.RowHits[n.level][cmd]; hit != nil {
		return hit(n, cmd, childID, clk)
	}

	if len(n.child) == 0 {
		return false
	}

	return n.child[childID].checkRowBufferHit(cmd, vec, clk)
}

// checkNodeOpen descends along vec until a level defines a row-open
// predicate for cmd.
func (n *Node) checkNodeOpen(cmd Command, vec AddrVec, clk sim.Cycle) bool {
	childID := -1
	if n.level+1 < len(vec) {
		childID = vec[n.level+1]
	}

	if open := n.spec.RowOpens[n.level][cmd]; open != nil {
		return open(n, cmd, childID, clk)
	}

	if len(n.child) == 0 {
		return false
	}

	return n.child[childID].checkNodeOpen(cmd, vec, clk)
}

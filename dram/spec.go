// Package dram models a hierarchical DRAM device. The device owns a tree of
// nodes (channel down to bank), a command/state specification, and the timing
// constraints that decide when each command may issue.
package dram

import (
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A Command is a DRAM bus command.
type Command int

// CmdInvalid marks a command slot that has not been resolved yet.
const CmdInvalid Command = -1

// All DRAM commands understood by the device models.
const (
	CmdACT Command = iota
	CmdPRE
	CmdPREA
	CmdRD
	CmdWR
	CmdRDA
	CmdWRA
	CmdREFab
	CmdREFsb
	CmdSRE
	CmdSRX

	NumCommands
)

var commandNames = [NumCommands]string{
	"ACT", "PRE", "PREA", "RD", "WR", "RDA", "WRA",
	"REFab", "REFsb", "SRE", "SRX",
}

func (c Command) String() string {
	if c < 0 || c >= NumCommands {
		return "invalid"
	}

	return commandNames[c]
}

// CommandMeta describes what a command does to the row buffer.
type CommandMeta struct {
	IsOpening   bool
	IsClosing   bool
	IsAccessing bool
	IsRefresh   bool
}

// A State is the condition of a device node or a row.
type State int

// Node and row states.
const (
	StateNone State = iota - 1
	StateClosed
	StateOpened
	StateRefreshing
	StatePowerDown
)

// A RequestType is an abstract memory request class that the controller
// translates into DRAM commands.
type RequestType int

// Request types. Read and Write match the convention used by trace frontends;
// the rest are generated inside the memory system.
const (
	ReqRead RequestType = iota
	ReqWrite
	ReqAllBankRefresh
	ReqPerBankRefresh
	ReqPrecharge

	NumRequestTypes
)

var requestTypeNames = [NumRequestTypes]string{
	"read", "write", "all-bank-refresh", "per-bank-refresh", "precharge",
}

func (t RequestType) String() string {
	if t < 0 || t >= NumRequestTypes {
		return "invalid"
	}

	return requestTypeNames[t]
}

// An AddrVec addresses one location in the device hierarchy, one index per
// level. -1 at a level means unspecified, which broadcasts to all siblings.
type AddrVec []int

// Clone returns a copy of the address vector.
func (v AddrVec) Clone() AddrVec {
	c := make(AddrVec, len(v))
	copy(c, v)

	return c
}

// A TimingEntry is one timing constraint edge. Once the owning command
// issues at a node, the Window-th most recent such issue forbids To from
// issuing at that node earlier than that issue plus Cycles. Sibling entries
// constrain the sibling nodes at the same level instead of the node itself.
type TimingEntry struct {
	To      Command
	Window  int
	Cycles  int
	Sibling bool
}

// An ActionFunc mutates node state when a command reaches the node's level.
// It receives the full address vector so it can schedule deferred actions on
// the device.
type ActionFunc func(dev *Device, n *Node, cmd Command, vec AddrVec, clk sim.Cycle)

// A PreqFunc decides whether a prerequisite command must issue at this level
// before cmd can. It returns CmdInvalid when no prerequisite is needed here.
type PreqFunc func(n *Node, cmd Command, vec AddrVec, clk sim.Cycle) Command

// A RowPredFunc answers row-buffer questions (hit, open) at a level.
type RowPredFunc func(n *Node, cmd Command, targetID int, clk sim.Cycle) bool

// A Spec holds everything that is immutable about a device model: the level
// hierarchy, command/state/request enumerations, the per-level behavior
// tables, and the timing constraints. A single Spec is shared by all nodes
// and may be shared across channels.
type Spec struct {
	Name   string
	Levels []string
	Counts []int // sibling count per level; Counts[0] is the channel count

	Scopes        [NumCommands]int // deepest level each command addresses
	Meta          [NumCommands]CommandMeta
	FinalCommands [NumRequestTypes]Command

	InitStates []State // per level

	// TimingCons[level][cmd] lists the constraints triggered by issuing cmd
	// at a node of that level.
	TimingCons [][][]TimingEntry

	// Behavior tables, all indexed [level][cmd]. A nil slot means the level
	// does not react to the command.
	Actions  [][]ActionFunc
	Preqs    [][]PreqFunc
	RowHits  [][]RowPredFunc
	RowOpens [][]RowPredFunc

	// Powers is an optional hook for energy models. When PowerEnabled is
	// set, issued commands also walk this table.
	Powers       [][]ActionFunc
	PowerEnabled bool

	// Cached indices of the levels the controller cares about.
	RankLevel int // the level refresh commands address (rank or pseudo-channel)
	BankLevel int
	RowLevel  int

	ReadLatency int

	// Busy times of the refresh commands, used by the refresh actions to
	// schedule the deferred return to Closed.
	refabCycles int
	refsbCycles int

	refreshInterval int
}

// RefreshInterval returns tREFI in memory cycles.
func (s *Spec) RefreshInterval() int {
	return s.refreshInterval
}

// LevelIndex returns the index of a level by name, or -1 if the spec does
// not have such a level.
func (s *Spec) LevelIndex(name string) int {
	for i, l := range s.Levels {
		if l == name {
			return i
		}
	}

	return -1
}

// LevelSize returns the number of siblings at the named level, or -1 if the
// level does not exist.
func (s *Spec) LevelSize(name string) int {
	idx := s.LevelIndex(name)
	if idx < 0 {
		return -1
	}

	return s.Counts[idx]
}

// maxWindow returns the longest history window any constraint of (level,
// cmd) needs.
func (s *Spec) maxWindow(level int, cmd Command) int {
	window := 0
	for _, t := range s.TimingCons[level][cmd] {
		if !t.Sibling && t.Window > window {
			window = t.Window
		}
	}

	return window
}

// allocTables sizes the behavior and timing tables to the hierarchy. Presets
// call this once before filling the tables in.
func (s *Spec) allocTables() {
	numLevels := len(s.Levels)

	s.TimingCons = make([][][]TimingEntry, numLevels)
	s.Actions = make([][]ActionFunc, numLevels)
	s.Preqs = make([][]PreqFunc, numLevels)
	s.RowHits = make([][]RowPredFunc, numLevels)
	s.RowOpens = make([][]RowPredFunc, numLevels)
	s.Powers = make([][]ActionFunc, numLevels)

	for l := 0; l < numLevels; l++ {
		s.TimingCons[l] = make([][]TimingEntry, NumCommands)
		s.Actions[l] = make([]ActionFunc, NumCommands)
		s.Preqs[l] = make([]PreqFunc, NumCommands)
		s.RowHits[l] = make([]RowPredFunc, NumCommands)
		s.RowOpens[l] = make([]RowPredFunc, NumCommands)
		s.Powers[l] = make([]ActionFunc, NumCommands)
	}
}

// addTiming appends one timing edge to (level, cmd).
func (s *Spec) addTiming(
	level int,
	cmd Command,
	entry TimingEntry,
) {
	s.TimingCons[level][cmd] = append(s.TimingCons[level][cmd], entry)
}

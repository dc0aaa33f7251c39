package dram

import (
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// TimingParams are the raw timing constraints of a device, all in memory
// cycles. Presets fill in defaults; the builder lets configurations override
// individual values.
type TimingParams struct {
	BL    int // burst length in beats; the bus is busy for BL/2 cycles
	CL    int // column access strobe latency
	CWL   int // column write strobe latency
	RCD   int // activate to column access
	RP    int // precharge to activate
	RAS   int // activate to precharge
	RC    int // activate to activate, same bank
	WR    int // write recovery
	RTP   int // read to precharge
	CCDL  int // column to column, same bank group
	CCDS  int // column to column, different bank group
	RRDL  int // activate to activate, same bank group
	RRDS  int // activate to activate, different bank group
	WTRL  int // write to read, same bank group
	WTRS  int // write to read, different bank group
	FAW   int // four-activate window
	RTRS  int // rank-to-rank switch
	REFI  int // refresh interval
	RFC   int // all-bank refresh cycle
	RFCb  int // per-bank refresh cycle
	CKESR int // self-refresh entry to exit
	XS    int // self-refresh exit to activate
}

// burstCycle is the number of cycles a burst occupies the data bus.
func (t TimingParams) burstCycle() int {
	return t.BL / 2
}

// Organization is the sibling count at every level of the hierarchy.
type Organization struct {
	Channels   int
	Ranks      int // pseudo-channels for HBM-class devices
	BankGroups int
	Banks      int
	Rows       int
	Columns    int
}

// DDR4Timing returns DDR4-2400-class default timing.
func DDR4Timing() TimingParams {
	return TimingParams{
		BL: 8, CL: 16, CWL: 12, RCD: 16, RP: 16, RAS: 39, RC: 55,
		WR: 18, RTP: 9, CCDL: 6, CCDS: 4, RRDL: 6, RRDS: 4,
		WTRL: 9, WTRS: 3, FAW: 26, RTRS: 2,
		REFI: 9360, RFC: 420, RFCb: 208, CKESR: 7, XS: 432,
	}
}

// HBM2Timing returns HBM2-class default timing.
func HBM2Timing() TimingParams {
	return TimingParams{
		BL: 4, CL: 14, CWL: 4, RCD: 14, RP: 14, RAS: 33, RC: 47,
		WR: 16, RTP: 5, CCDL: 4, CCDS: 2, RRDL: 6, RRDS: 4,
		WTRL: 8, WTRS: 3, FAW: 30, RTRS: 2,
		REFI: 3900, RFC: 350, RFCb: 160, CKESR: 8, XS: 360,
	}
}

// DDR4Organization returns a one-channel, dual-rank DDR4 organization.
func DDR4Organization() Organization {
	return Organization{
		Channels: 1, Ranks: 2, BankGroups: 4, Banks: 4,
		Rows: 32768, Columns: 1024,
	}
}

// HBM2Organization returns a one-channel HBM2 organization with two
// pseudo-channels.
func HBM2Organization() Organization {
	return Organization{
		Channels: 1, Ranks: 2, BankGroups: 4, Banks: 4,
		Rows: 16384, Columns: 64,
	}
}

// newSpec lays out a six-level spec. rankName distinguishes DDR-class ranks
// from HBM-class pseudo-channels; everything below behaves identically.
func newSpec(name, rankName string, org Organization, t TimingParams) *Spec {
	s := &Spec{
		Name: name,
		Levels: []string{
			"channel", rankName, "bankgroup", "bank", "row", "column",
		},
		Counts: []int{
			org.Channels, org.Ranks, org.BankGroups, org.Banks,
			org.Rows, org.Columns,
		},
		InitStates: []State{
			StateNone, StateNone, StateNone, StateClosed,
			StateNone, StateNone,
		},
		RankLevel: 1,
		BankLevel: 3,
		RowLevel:  4,
	}

	columnLevel := 5

	s.Scopes = [NumCommands]int{
		CmdACT:   s.RowLevel,
		CmdPRE:   s.BankLevel,
		CmdPREA:  s.RankLevel,
		CmdRD:    columnLevel,
		CmdWR:    columnLevel,
		CmdRDA:   columnLevel,
		CmdWRA:   columnLevel,
		CmdREFab: s.RankLevel,
		CmdREFsb: s.BankLevel,
		CmdSRE:   s.RankLevel,
		CmdSRX:   s.RankLevel,
	}

	s.Meta = [NumCommands]CommandMeta{
		CmdACT:   {IsOpening: true},
		CmdPRE:   {IsClosing: true},
		CmdPREA:  {IsClosing: true},
		CmdRD:    {IsAccessing: true},
		CmdWR:    {IsAccessing: true},
		CmdRDA:   {IsAccessing: true, IsClosing: true},
		CmdWRA:   {IsAccessing: true, IsClosing: true},
		CmdREFab: {IsRefresh: true},
		CmdREFsb: {IsRefresh: true},
	}

	s.FinalCommands = [NumRequestTypes]Command{
		ReqRead:           CmdRD,
		ReqWrite:          CmdWR,
		ReqAllBankRefresh: CmdREFab,
		ReqPerBankRefresh: CmdREFsb,
		ReqPrecharge:      CmdPRE,
	}

	s.ReadLatency = t.CL + t.burstCycle()

	s.allocTables()
	buildBehavior(s)
	buildTiming(s, t)

	return s
}

// buildBehavior installs the state actions, prerequisite resolvers, and row
// predicates shared by all six-level devices.
func buildBehavior(s *Spec) {
	bank := s.BankLevel
	rank := s.RankLevel
	row := s.RowLevel

	// Bank state machine.
	s.Actions[bank][CmdACT] = func(
		_ *Device, n *Node, _ Command, vec AddrVec, _ sim.Cycle,
	) {
		n.SetState(StateOpened)
		n.OpenRow(vec[row])
	}

	closeBank := func(
		_ *Device, n *Node, _ Command, _ AddrVec, _ sim.Cycle,
	) {
		n.SetState(StateClosed)
		n.CloseRows()
	}
	s.Actions[bank][CmdPRE] = closeBank
	s.Actions[bank][CmdRDA] = closeBank
	s.Actions[bank][CmdWRA] = closeBank

	// PREA addresses the rank but closes every bank under it.
	s.Actions[rank][CmdPREA] = func(
		_ *Device, n *Node, _ Command, _ AddrVec, _ sim.Cycle,
	) {
		forEachBank(n, bank, func(b *Node) {
			b.SetState(StateClosed)
			b.CloseRows()
		})
	}

	// Refresh marks banks Refreshing and defers the return to Closed.
	s.Actions[rank][CmdREFab] = func(
		dev *Device, n *Node, _ Command, vec AddrVec, clk sim.Cycle,
	) {
		forEachBank(n, bank, func(b *Node) {
			b.SetState(StateRefreshing)
			b.CloseRows()
		})

		dev.ScheduleFutureAction(FutureAction{
			When: clk + sim.Cycle(dev.spec.refreshCycles(CmdREFab)),
			Cmd:  CmdPREA,
			Vec:  vec.Clone(),
		})
	}

	s.Actions[bank][CmdREFsb] = func(
		dev *Device, n *Node, _ Command, vec AddrVec, clk sim.Cycle,
	) {
		n.SetState(StateRefreshing)
		n.CloseRows()

		dev.ScheduleFutureAction(FutureAction{
			When: clk + sim.Cycle(dev.spec.refreshCycles(CmdREFsb)),
			Cmd:  CmdPRE,
			Vec:  vec.Clone(),
		})
	}

	// Prerequisites: the bank decides what a column access really needs.
	columnPreq := func(
		n *Node, cmd Command, vec AddrVec, _ sim.Cycle,
	) Command {
		switch n.State() {
		case StateClosed, StateRefreshing:
			return CmdACT
		case StateOpened:
			if n.RowOpened(vec[row]) {
				return cmd
			}

			return CmdPRE
		default:
			return CmdACT
		}
	}
	s.Preqs[bank][CmdRD] = columnPreq
	s.Preqs[bank][CmdWR] = columnPreq
	s.Preqs[bank][CmdRDA] = columnPreq
	s.Preqs[bank][CmdWRA] = columnPreq

	// An all-bank refresh needs every bank closed first.
	s.Preqs[rank][CmdREFab] = func(
		n *Node, _ Command, _ AddrVec, _ sim.Cycle,
	) Command {
		allClosed := true
		forEachBank(n, bank, func(b *Node) {
			if b.State() == StateOpened {
				allClosed = false
			}
		})

		if allClosed {
			return CmdREFab
		}

		return CmdPREA
	}

	s.Preqs[bank][CmdREFsb] = func(
		n *Node, _ Command, _ AddrVec, _ sim.Cycle,
	) Command {
		if n.State() == StateOpened {
			return CmdPRE
		}

		return CmdREFsb
	}

	// Row predicates.
	rowHit := func(n *Node, _ Command, targetID int, _ sim.Cycle) bool {
		return n.State() == StateOpened && n.RowOpened(targetID)
	}
	rowOpen := func(n *Node, _ Command, _ int, _ sim.Cycle) bool {
		return n.State() == StateOpened
	}

	for _, cmd := range []Command{CmdRD, CmdWR, CmdRDA, CmdWRA} {
		s.RowHits[bank][cmd] = rowHit
		s.RowOpens[bank][cmd] = rowOpen
	}
}

// forEachBank applies f to every bank-level node under n.
func forEachBank(n *Node, bankLevel int, f func(*Node)) {
	if n.Level() == bankLevel {
		f(n)
		return
	}

	for _, c := range n.child {
		forEachBank(c, bankLevel, f)
	}
}

// refreshCycles returns the busy time of a refresh command. The values are
// captured into the spec when the timing tables are generated.
func (s *Spec) refreshCycles(cmd Command) int {
	if cmd == CmdREFsb {
		return s.refsbCycles
	}

	return s.refabCycles
}

// buildTiming populates the per-level timing tables from the raw parameters.
// The same-bank / same-bank-group / same-rank / other-rank split follows the
// JEDEC constraint families.
func buildTiming(s *Spec, t TimingParams) {
	nBL := t.burstCycle()
	rank := s.RankLevel
	bg := rank + 1
	bank := s.BankLevel

	s.refabCycles = t.RFC
	s.refsbCycles = t.RFCb
	s.refreshInterval = t.REFI

	reads := []Command{CmdRD, CmdRDA}
	writes := []Command{CmdWR, CmdWRA}
	columns := []Command{CmdRD, CmdWR, CmdRDA, CmdWRA}

	readToWrite := t.CL + nBL + t.RTRS - t.CWL
	writeToReadS := t.CWL + nBL + t.WTRS
	writeToReadL := t.CWL + nBL + t.WTRL
	writeToPre := t.CWL + nBL + t.WR

	// Rank level: cross-bank constraints within a rank, plus the sliding
	// four-activate window and the rank-wide maintenance commands.
	addMany(s, rank, []Command{CmdACT}, []Command{CmdACT}, 1, t.RRDS, false)
	addMany(s, rank, []Command{CmdACT}, []Command{CmdACT}, 4, t.FAW, false)
	addMany(s, rank, []Command{CmdACT}, []Command{CmdPREA}, 1, t.RAS, false)
	addMany(s, rank, []Command{CmdACT}, []Command{CmdREFab}, 1, t.RC, false)

	addMany(s, rank, reads, columns, 1, maxInt(nBL, t.CCDS), false)
	addMany(s, rank, reads, writes, 1, maxInt(readToWrite, nBL), false)
	addMany(s, rank, reads, []Command{CmdPREA}, 1, t.RTP, false)
	addMany(s, rank, writes, reads, 1, writeToReadS, false)
	addMany(s, rank, writes, writes, 1, maxInt(nBL, t.CCDS), false)
	addMany(s, rank, writes, []Command{CmdPREA}, 1, writeToPre, false)

	addMany(s, rank, []Command{CmdPREA},
		[]Command{CmdACT, CmdREFab, CmdREFsb, CmdSRE}, 1, t.RP, false)
	addMany(s, rank, []Command{CmdREFab},
		[]Command{CmdACT, CmdREFab, CmdREFsb, CmdSRE}, 1, t.RFC, false)
	addMany(s, rank, []Command{CmdSRE}, []Command{CmdSRX}, 1, t.CKESR, false)
	addMany(s, rank, []Command{CmdSRX},
		[]Command{CmdACT, CmdREFab, CmdREFsb}, 1, t.XS, false)

	// Rank-to-rank: data bus hand-over between sibling ranks.
	addMany(s, rank, columns, columns, 1, nBL+t.RTRS, true)

	// Bank group level: the long variants.
	addMany(s, bg, []Command{CmdACT}, []Command{CmdACT}, 1, t.RRDL, false)
	addMany(s, bg, reads, columns, 1, maxInt(nBL, t.CCDL), false)
	addMany(s, bg, writes, reads, 1, writeToReadL, false)
	addMany(s, bg, writes, writes, 1, maxInt(nBL, t.CCDL), false)

	// Bank level: the row cycle proper.
	addMany(s, bank, []Command{CmdACT}, []Command{CmdACT}, 1, t.RC, false)
	addMany(s, bank, []Command{CmdACT}, columns, 1, t.RCD, false)
	addMany(s, bank, []Command{CmdACT}, []Command{CmdPRE}, 1, t.RAS, false)
	addMany(s, bank, []Command{CmdPRE},
		[]Command{CmdACT, CmdREFsb}, 1, t.RP, false)
	addMany(s, bank, reads, []Command{CmdPRE}, 1, t.RTP, false)
	addMany(s, bank, writes, []Command{CmdPRE}, 1, writeToPre, false)
	addMany(s, bank, []Command{CmdRDA}, []Command{CmdACT}, 1, t.RTP+t.RP, false)
	addMany(s, bank, []Command{CmdWRA}, []Command{CmdACT}, 1, writeToPre+t.RP,
		false)
	addMany(s, bank, []Command{CmdREFsb},
		[]Command{CmdACT, CmdREFsb}, 1, t.RFCb, false)
}

func addMany(
	s *Spec,
	level int,
	from, to []Command,
	window, cycles int,
	sibling bool,
) {
	for _, f := range from {
		for _, t := range to {
			s.addTiming(level, f, TimingEntry{
				To: t, Window: window, Cycles: cycles, Sibling: sibling,
			})
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

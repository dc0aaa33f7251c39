package memctrl

import (
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// A RefreshManager emits synthetic refresh requests onto the controller's
// priority buffer at protocol-defined intervals.
type RefreshManager interface {
	Tick()
}

// NoRefresh disables refresh, useful for focused experiments and tests.
type NoRefresh struct{}

func (NoRefresh) Tick() {}

// AllBankRefresh issues one all-bank refresh per rank every tREFI.
type AllBankRefresh struct {
	ctrl      *Controller
	channelID int
	interval  sim.Cycle
	numRanks  int

	clk         sim.Cycle
	nextRefresh sim.Cycle
}

// NewAllBankRefresh creates an all-bank refresh manager. interval is tREFI
// in memory cycles.
func NewAllBankRefresh(ctrl *Controller, channelID, numRanks, interval int) *AllBankRefresh {
	return &AllBankRefresh{
		ctrl:        ctrl,
		channelID:   channelID,
		interval:    sim.Cycle(interval),
		numRanks:    numRanks,
		nextRefresh: sim.Cycle(interval),
	}
}

func (r *AllBankRefresh) Tick() {
	r.clk++
	if r.clk < r.nextRefresh {
		return
	}

	for rank := 0; rank < r.numRanks; rank++ {
		vec := dram.AddrVec{r.channelID, rank, -1, -1, -1, -1}
		r.ctrl.PrioritySend(NewVecRequest(vec, dram.ReqAllBankRefresh))
	}

	r.nextRefresh += r.interval
}

// PerBankRefresh spreads refresh over the banks of each rank, refreshing
// one bank every tREFI divided by the bank count.
type PerBankRefresh struct {
	ctrl      *Controller
	channelID int
	interval  sim.Cycle
	numRanks  int

	bankGroups int
	banks      int

	clk         sim.Cycle
	nextRefresh sim.Cycle
	nextBank    int
}

// NewPerBankRefresh creates a per-bank refresh manager. interval is tREFI;
// each individual bank refresh fires every interval / (bankGroups * banks).
func NewPerBankRefresh(
	ctrl *Controller,
	channelID, numRanks, bankGroups, banks, interval int,
) *PerBankRefresh {
	per := interval / (bankGroups * banks)

	return &PerBankRefresh{
		ctrl:        ctrl,
		channelID:   channelID,
		interval:    sim.Cycle(per),
		numRanks:    numRanks,
		bankGroups:  bankGroups,
		banks:       banks,
		nextRefresh: sim.Cycle(per),
	}
}

func (r *PerBankRefresh) Tick() {
	r.clk++
	if r.clk < r.nextRefresh {
		return
	}

	bg := r.nextBank / r.banks
	bank := r.nextBank % r.banks

	for rank := 0; rank < r.numRanks; rank++ {
		vec := dram.AddrVec{r.channelID, rank, bg, bank, -1, -1}
		r.ctrl.PrioritySend(NewVecRequest(vec, dram.ReqPerBankRefresh))
	}

	r.nextBank = (r.nextBank + 1) % (r.bankGroups * r.banks)
	r.nextRefresh += r.interval
}

package dram

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// testTiming keeps the numbers small so the expected cycles are easy to
// follow in the specs below. nBL = 2, read latency = 6.
func testTiming() TimingParams {
	return TimingParams{
		BL: 4, CL: 4, CWL: 3, RCD: 5, RP: 5, RAS: 8, RC: 13,
		WR: 6, RTP: 3, CCDL: 3, CCDS: 2, RRDL: 3, RRDS: 2,
		WTRL: 4, WTRS: 2, FAW: 10, RTRS: 1,
		REFI: 100, RFC: 20, RFCb: 10, CKESR: 4, XS: 12,
	}
}

func testOrg() Organization {
	return Organization{
		Channels: 1, Ranks: 2, BankGroups: 2, Banks: 4,
		Rows: 16, Columns: 8,
	}
}

func buildTestDevice() *Device {
	return MakeBuilder().
		WithPreset("DDR4").
		WithOrganization(testOrg()).
		WithTiming(testTiming()).
		Build("DRAM")
}

// tickTo advances the device clock to the given cycle.
func tickTo(d *Device, clk int64) {
	for int64(d.Clk()) < clk {
		d.Tick()
	}
}

var _ = Describe("Device", func() {
	var (
		d   *Device
		vec AddrVec
	)

	BeforeEach(func() {
		d = buildTestDevice()
		vec = AddrVec{0, 0, 0, 0, 5, 0}
		d.Tick()
	})

	It("should require ACT before reading a closed bank", func() {
		Expect(d.PreqCommand(CmdRD, vec)).To(Equal(CmdACT))
	})

	It("should serve a read directly once the row is open", func() {
		d.IssueCommand(CmdACT, vec)

		Expect(d.PreqCommand(CmdRD, vec)).To(Equal(CmdRD))
	})

	It("should require PRE when another row occupies the bank", func() {
		d.IssueCommand(CmdACT, vec)

		otherRow := AddrVec{0, 0, 0, 0, 7, 0}
		Expect(d.PreqCommand(CmdRD, otherRow)).To(Equal(CmdPRE))
	})

	It("should hold RD until tRCD after ACT", func() {
		d.IssueCommand(CmdACT, vec) // clk = 1

		tickTo(d, 5)
		Expect(d.CheckReady(CmdRD, vec)).To(BeFalse())

		tickTo(d, 6)
		Expect(d.CheckReady(CmdRD, vec)).To(BeTrue())
	})

	It("should report row hits and node open state", func() {
		Expect(d.CheckNodeOpen(CmdRD, vec)).To(BeFalse())

		d.IssueCommand(CmdACT, vec)

		Expect(d.CheckRowBufferHit(CmdRD, vec)).To(BeTrue())
		Expect(d.CheckNodeOpen(CmdRD, vec)).To(BeTrue())

		otherRow := AddrVec{0, 0, 0, 0, 7, 0}
		Expect(d.CheckRowBufferHit(CmdRD, otherRow)).To(BeFalse())
		Expect(d.CheckNodeOpen(CmdRD, otherRow)).To(BeTrue())
	})

	It("should count issued commands", func() {
		d.IssueCommand(CmdACT, vec)
		d.IssueCommand(CmdRD, vec)
		d.IssueCommand(CmdRD, vec)

		Expect(d.CommandCount(CmdACT)).To(Equal(uint64(1)))
		Expect(d.CommandCount(CmdRD)).To(Equal(uint64(2)))
	})

	Context("four-activate window", func() {
		It("should delay the fifth ACT in a rank by tFAW", func() {
			banks := []AddrVec{
				{0, 0, 0, 0, 1, 0},
				{0, 0, 1, 0, 1, 0},
				{0, 0, 0, 1, 1, 0},
				{0, 0, 1, 1, 1, 0},
			}

			clks := []int64{1, 3, 5, 7}
			for i, b := range banks {
				tickTo(d, clks[i])
				Expect(d.CheckReady(CmdACT, b)).To(BeTrue())
				d.IssueCommand(CmdACT, b)
			}

			// A bank that has not been activated, so only the rank-level
			// constraints bind. tRRDS would allow clk 9 and tRRDL clk 8;
			// the four-wide window pushes it to 1 + tFAW = 11.
			fifth := AddrVec{0, 0, 0, 2, 2, 0}

			tickTo(d, 10)
			Expect(d.CheckReady(CmdACT, fifth)).To(BeFalse())

			tickTo(d, 11)
			Expect(d.CheckReady(CmdACT, fifth)).To(BeTrue())
		})

		It("should not constrain while the window is unfilled", func() {
			a := AddrVec{0, 0, 0, 0, 1, 0}
			d.IssueCommand(CmdACT, a)

			// Only one issue recorded: the four-wide window must not
			// produce a constraint from the sentinel slots.
			b := AddrVec{0, 0, 1, 0, 1, 0}
			tickTo(d, 3)
			Expect(d.CheckReady(CmdACT, b)).To(BeTrue())
		})
	})

	Context("sibling rank constraints", func() {
		It("should delay reads on the other rank by the bus hand-over",
			func() {
				d.IssueCommand(CmdACT, vec)
				tickTo(d, 6)
				d.IssueCommand(CmdRD, vec) // clk = 6

				otherRank := AddrVec{0, 1, 0, 0, 5, 0}

				// nBL + tRTRS = 3 cycles after the issue.
				tickTo(d, 8)
				Expect(d.CheckReady(CmdRD, otherRank)).To(BeFalse())

				tickTo(d, 9)
				Expect(d.CheckReady(CmdRD, otherRank)).To(BeTrue())
			})
	})

	Context("refresh", func() {
		refVec := AddrVec{0, 0, -1, -1, -1, -1}

		It("should demand PREA while any bank is open", func() {
			d.IssueCommand(CmdACT, vec)

			Expect(d.PreqCommand(CmdREFab, refVec)).To(Equal(CmdPREA))
		})

		It("should refresh directly when all banks are closed", func() {
			Expect(d.PreqCommand(CmdREFab, refVec)).To(Equal(CmdREFab))
		})

		It("should return banks to Closed after tRFC", func() {
			d.IssueCommand(CmdREFab, refVec) // clk = 1

			bank := d.channels[0].Child(0).Child(0).Child(0)
			Expect(bank.State()).To(Equal(StateRefreshing))

			tickTo(d, 21)
			Expect(bank.State()).To(Equal(StateClosed))
		})

		It("should hold ACT until tRFC after REFab", func() {
			d.IssueCommand(CmdREFab, refVec) // clk = 1

			tickTo(d, 20)
			Expect(d.CheckReady(CmdACT, vec)).To(BeFalse())

			tickTo(d, 21)
			Expect(d.CheckReady(CmdACT, vec)).To(BeTrue())
		})
	})

	Context("power hooks", func() {
		It("should walk the power table only when enabled", func() {
			calls := 0
			spec := d.Spec()
			spec.Powers[spec.BankLevel][CmdRD] = func(
				_ *Device, _ *Node, _ Command, _ AddrVec, _ sim.Cycle,
			) {
				calls++
			}

			d.IssueCommand(CmdRD, vec)
			Expect(calls).To(Equal(0))

			spec.PowerEnabled = true
			d.IssueCommand(CmdRD, vec)
			Expect(calls).To(Equal(1))
		})
	})

	Context("broadcast readiness", func() {
		It("should require every bank under a broadcast to be ready",
			func() {
				pre := AddrVec{0, 0, 0, 0, -1, -1}
				d.IssueCommand(CmdPRE, pre) // clk = 1

				// One constrained bank holds back the whole broadcast:
				// PRE-to-REFsb is tRP on that bank.
				all := AddrVec{0, 0, -1, -1, -1, -1}
				tickTo(d, 5)
				Expect(d.CheckReady(CmdREFsb, all)).To(BeFalse())

				tickTo(d, 6)
				Expect(d.CheckReady(CmdREFsb, all)).To(BeTrue())
			})

		It("should keep rank-level constraints across a PREA", func() {
			d.IssueCommand(CmdACT, vec) // clk = 1

			refVec := AddrVec{0, 0, -1, -1, -1, -1}
			d.IssueCommand(CmdPREA, refVec)

			// tRP after the PREA at clk 1 would allow REFab at clk 6,
			// but the rank-level ACT-to-REFab gap (tRC) holds it to 14.
			tickTo(d, 13)
			Expect(d.CheckReady(CmdREFab, refVec)).To(BeFalse())

			tickTo(d, 14)
			Expect(d.CheckReady(CmdREFab, refVec)).To(BeTrue())
		})
	})
})

package memctrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// The test device uses small timing values: tRCD 5, tRP 5, tRAS 8, tRC 13,
// tRTP 3, read latency 6 (tCL 4 + two burst cycles).
func buildTestDevice() *dram.Device {
	return dram.MakeBuilder().
		WithPreset("DDR4").
		WithOrganization(dram.Organization{
			Channels: 1, Ranks: 2, BankGroups: 2, Banks: 4,
			Rows: 16, Columns: 8,
		}).
		WithTiming(dram.TimingParams{
			BL: 4, CL: 4, CWL: 3, RCD: 5, RP: 5, RAS: 8, RC: 13,
			WR: 6, RTP: 3, CCDL: 3, CCDS: 2, RRDL: 3, RRDS: 2,
			WTRL: 4, WTRS: 2, FAW: 10, RTRS: 1,
			REFI: 100, RFC: 20, RFCb: 10, CKESR: 4, XS: 12,
		}).
		Build("DRAM")
}

// tick advances device and controller together, the way the memory system
// does.
func tick(d *dram.Device, c *Controller, n int) {
	for i := 0; i < n; i++ {
		d.Tick()
		c.Tick()
	}
}

var _ = Describe("Controller", func() {
	var (
		d *dram.Device
		c *Controller
	)

	BeforeEach(func() {
		d = buildTestDevice()
		c = MakeBuilder().
			WithDevice(d).
			WithRefreshManager(RefreshNone).
			Build("Ctrl")
	})

	It("should serve a single cold read with ACT then RD", func() {
		var completed *Request

		req := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		req.Callback = func(r *Request) { completed = r }

		Expect(c.Send(req)).To(BeTrue())

		// Cycle 1 issues the ACT; RD becomes ready tRCD later and
		// departs read-latency cycles after that.
		tick(d, c, 1)
		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(1)))
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(0)))

		tick(d, c, 5)
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(1)))
		Expect(req.Depart).To(Equal(sim.Cycle(6 + 6)))

		tick(d, c, 6)
		Expect(completed).To(BeIdenticalTo(req))

		Expect(c.Stats().RowMisses).To(Equal(uint64(1)))
		Expect(c.Stats().RowHits).To(Equal(uint64(0)))
	})

	It("should hit the open row on the second read", func() {
		req1 := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		req2 := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 4}, dram.ReqRead)

		Expect(c.Send(req1)).To(BeTrue())
		Expect(c.Send(req2)).To(BeTrue())

		tick(d, c, 12)

		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(1)))
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(2)))
		Expect(c.Stats().RowMisses).To(Equal(uint64(1)))
		Expect(c.Stats().RowHits).To(Equal(uint64(1)))
	})

	It("should precharge on a row conflict", func() {
		req1 := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		req2 := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 7, 0}, dram.ReqRead)

		Expect(c.Send(req1)).To(BeTrue())
		Expect(c.Send(req2)).To(BeTrue())

		tick(d, c, 25)

		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(2)))
		Expect(d.CommandCount(dram.CmdPRE)).To(Equal(uint64(1)))
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(2)))
		Expect(c.Stats().RowConflicts).To(Equal(uint64(1)))
		Expect(c.Stats().RowMisses).To(Equal(uint64(1)))
	})

	It("should forward a read that hits a buffered write", func() {
		write := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqWrite)
		write.Addr = 0x1000

		read := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		read.Addr = 0x1000

		Expect(c.Send(write)).To(BeTrue())
		Expect(c.Send(read)).To(BeTrue())

		// The read departs one cycle after admission without issuing any
		// device command on its behalf.
		Expect(read.Depart).To(Equal(sim.Cycle(1)))
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(0)))
		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(0)))

		var completed *Request
		read.Callback = func(r *Request) { completed = r }

		tick(d, c, 1)
		Expect(completed).To(BeIdenticalTo(read))
	})

	It("should give queued maintenance absolute priority", func() {
		read := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(read)).To(BeTrue())

		refresh := NewVecRequest(
			dram.AddrVec{0, 0, -1, -1, -1, -1}, dram.ReqAllBankRefresh)
		Expect(c.PrioritySend(refresh)).To(BeTrue())

		tick(d, c, 1)

		// The refresh wins the cycle even though the read's ACT was
		// ready; the read must wait for tRFC.
		Expect(d.CommandCount(dram.CmdREFab)).To(Equal(uint64(1)))
		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(0)))

		tick(d, c, 19)
		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(0)))

		tick(d, c, 1)
		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(1)))
	})

	It("should yield the cycle while maintenance is not ready", func() {
		// An open row forces the refresh to precharge first; until that
		// precharge may issue, no read or write buffer request gets the
		// cycle. Only the active buffer is asked before maintenance.
		read := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(read)).To(BeTrue())

		tick(d, c, 1) // ACT issues, read moves to the active buffer

		refresh := NewVecRequest(
			dram.AddrVec{0, 0, -1, -1, -1, -1}, dram.ReqAllBankRefresh)
		Expect(c.PrioritySend(refresh)).To(BeTrue())

		// RD would be ready at cycle 6, but the pending refresh resolves
		// to PREA, which tRAS holds until cycle 9. The active read is
		// served first each cycle it is ready, so RD still issues; the
		// PREA must wait for it.
		tick(d, c, 5)
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(1)))
		Expect(d.CommandCount(dram.CmdPREA)).To(Equal(uint64(0)))

		tick(d, c, 3)
		Expect(d.CommandCount(dram.CmdPREA)).To(Equal(uint64(1)))
	})

	It("should not close a row an active request still needs", func() {
		// Park a request in the active buffer whose row is open.
		read := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(read)).To(BeTrue())
		tick(d, c, 1) // ACT issued, read is active

		// A precharge for the same bank arrives on the priority buffer.
		pre := NewVecRequest(dram.AddrVec{0, 0, 0, 0, -1, -1},
			dram.ReqPrecharge)
		Expect(c.PrioritySend(pre)).To(BeTrue())

		// tRAS allows PRE at cycle 9, but the closing guard keeps
		// abandoning the choice while the read is still active. The read
		// issues RD at cycle 6, departs, and only then may PRE go.
		tick(d, c, 5)
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(1)))
		Expect(d.CommandCount(dram.CmdPRE)).To(Equal(uint64(0)))

		tick(d, c, 3)
		Expect(d.CommandCount(dram.CmdPRE)).To(Equal(uint64(1)))
	})

	It("should abandon a ready closing command while the row is needed",
		func() {
			// A device where the precharge becomes ready before the
			// active read's RD does, so the guard is what holds it back.
			slow := dram.MakeBuilder().
				WithPreset("DDR4").
				WithOrganization(dram.Organization{
					Channels: 1, Ranks: 2, BankGroups: 2, Banks: 4,
					Rows: 16, Columns: 8,
				}).
				WithTiming(dram.TimingParams{
					BL: 4, CL: 4, CWL: 3, RCD: 12, RP: 5, RAS: 8, RC: 13,
					WR: 6, RTP: 3, CCDL: 3, CCDS: 2, RRDL: 3, RRDS: 2,
					WTRL: 4, WTRS: 2, FAW: 10, RTRS: 1,
					REFI: 100, RFC: 20, RFCb: 10, CKESR: 4, XS: 12,
				}).
				Build("SlowDRAM")
			sc := MakeBuilder().
				WithDevice(slow).
				WithRefreshManager(RefreshNone).
				Build("SlowCtrl")

			read := NewVecRequest(
				dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
			Expect(sc.Send(read)).To(BeTrue())
			tick(slow, sc, 1) // ACT at cycle 1, read goes active

			pre := NewVecRequest(
				dram.AddrVec{0, 0, 0, 0, -1, -1}, dram.ReqPrecharge)
			Expect(sc.PrioritySend(pre)).To(BeTrue())

			// tRAS makes PRE ready at cycle 9, well before RD at 13; the
			// closing guard must abandon it while the read is active.
			tick(slow, sc, 11) // through cycle 12
			Expect(slow.CommandCount(dram.CmdPRE)).To(Equal(uint64(0)))

			tick(slow, sc, 1) // cycle 13: RD issues, read leaves active
			Expect(slow.CommandCount(dram.CmdRD)).To(Equal(uint64(1)))

			// cycles 14-16: tRTP after the RD at 13 holds PRE until 16
			tick(slow, sc, 3)
			Expect(slow.CommandCount(dram.CmdPRE)).To(Equal(uint64(1)))
		})

	It("should complete pending requests in departure order", func() {
		var order []*Request
		cb := func(r *Request) { order = append(order, r) }

		reqs := []*Request{
			NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead),
			NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 1}, dram.ReqRead),
			NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 2}, dram.ReqRead),
		}
		for _, r := range reqs {
			r.Callback = cb
			Expect(c.Send(r)).To(BeTrue())
		}

		tick(d, c, 40)

		Expect(order).To(HaveLen(3))
		Expect(order[0].Depart).To(BeNumerically("<=", order[1].Depart))
		Expect(order[1].Depart).To(BeNumerically("<=", order[2].Depart))
	})

	It("should reject reads past the buffer capacity", func() {
		for i := 0; i < 32; i++ {
			r := NewVecRequest(
				dram.AddrVec{0, 0, 0, 0, i % 16, 0}, dram.ReqRead)
			Expect(c.Send(r)).To(BeTrue())
		}

		extra := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 0, 0}, dram.ReqRead)
		Expect(c.Send(extra)).To(BeFalse())
		Expect(extra.Arrive).To(Equal(sim.CycleNever))
	})

	It("should panic when a refresh request uses the read/write path",
		func() {
			bad := NewVecRequest(
				dram.AddrVec{0, 0, -1, -1, -1, -1}, dram.ReqAllBankRefresh)

			Expect(func() { c.Send(bad) }).To(Panic())
		})
})

var _ = Describe("Controller write mode", func() {
	var (
		d *dram.Device
		c *Controller
	)

	BeforeEach(func() {
		d = buildTestDevice()
		c = MakeBuilder().
			WithDevice(d).
			WithRefreshManager(RefreshNone).
			WithWatermarks(0.2, 0.8).
			Build("Ctrl")
	})

	fillWrites := func(n int) {
		for i := 0; i < n; i++ {
			w := NewVecRequest(
				dram.AddrVec{0, 0, 0, 0, i % 16, i % 8}, dram.ReqWrite)
			Expect(c.Send(w)).To(BeTrue())
		}
	}

	It("should enter write mode at the high watermark", func() {
		fillWrites(26) // 26 >= 0.8 * 32

		r := NewVecRequest(dram.AddrVec{0, 0, 1, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(r)).To(BeTrue())

		c.setWriteMode()
		Expect(c.writeMode).To(BeTrue())
	})

	It("should enter write mode when no reads wait", func() {
		fillWrites(1)

		c.setWriteMode()
		Expect(c.writeMode).To(BeTrue())
	})

	It("should stay in write mode until the low watermark", func() {
		fillWrites(26)
		r := NewVecRequest(dram.AddrVec{0, 0, 1, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(r)).To(BeTrue())

		c.setWriteMode()
		Expect(c.writeMode).To(BeTrue())

		// Drain writes down to seven: still above 0.2 * 32.
		for c.writeBuffer.Size() > 7 {
			c.writeBuffer.Remove(0)
		}
		c.setWriteMode()
		Expect(c.writeMode).To(BeTrue())

		// One fewer write crosses the low watermark; reads wait, so the
		// controller switches back.
		c.writeBuffer.Remove(0)
		c.setWriteMode()
		Expect(c.writeMode).To(BeFalse())
	})

	It("should not leave write mode without waiting reads", func() {
		fillWrites(2)

		c.setWriteMode()
		Expect(c.writeMode).To(BeTrue())

		c.writeBuffer.Remove(0)
		c.setWriteMode()
		Expect(c.writeMode).To(BeTrue())
	})

	It("should drain writes while in write mode", func() {
		fillWrites(26)
		r := NewVecRequest(dram.AddrVec{0, 0, 1, 1, 5, 0}, dram.ReqRead)
		Expect(c.Send(r)).To(BeTrue())

		tick(d, c, 2)

		// The first command belongs to a write: ACT on the write's bank.
		Expect(d.CommandCount(dram.CmdACT)).To(BeNumerically(">", uint64(0)))
		Expect(d.CommandCount(dram.CmdRD)).To(Equal(uint64(0)))
	})
})

var _ = Describe("Controller pipeline order", func() {
	var (
		mockCtrl  *gomock.Controller
		d         *dram.Device
		c         *Controller
		scheduler *MockScheduler
		rowPolicy *MockRowPolicy
		refresh   *MockRefreshManager
		plugin    *MockPlugin
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())

		d = buildTestDevice()
		c = MakeBuilder().
			WithDevice(d).
			WithRefreshManager(RefreshNone).
			Build("Ctrl")

		scheduler = NewMockScheduler(mockCtrl)
		rowPolicy = NewMockRowPolicy(mockCtrl)
		refresh = NewMockRefreshManager(mockCtrl)
		plugin = NewMockPlugin(mockCtrl)

		c.scheduler = scheduler
		c.rowPolicy = rowPolicy
		c.refresh = refresh
		c.plugins = []Plugin{plugin}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run refresh, then schedule, then observers", func() {
		// With both buffers empty the watermark rule flips to write mode,
		// so the second scheduler query goes to the write buffer.
		gomock.InOrder(
			refresh.EXPECT().Tick(),
			scheduler.EXPECT().BestRequest(c.activeBuffer).Return(-1),
			scheduler.EXPECT().BestRequest(c.writeBuffer).Return(-1),
			rowPolicy.EXPECT().Update(false, nil),
			plugin.EXPECT().Update(false, nil),
		)

		d.Tick()
		c.Tick()
	})

	It("should show the chosen request to the observers", func() {
		req := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(req)).To(BeTrue())

		refresh.EXPECT().Tick()
		scheduler.EXPECT().BestRequest(c.activeBuffer).Return(-1)
		scheduler.EXPECT().
			BestRequest(c.readBuffer).
			DoAndReturn(func(buf *RequestBuffer) int {
				buf.At(0).Command = d.PreqCommand(
					buf.At(0).FinalCommand, buf.At(0).AddrVec)
				return 0
			})
		rowPolicy.EXPECT().Update(true, req)
		plugin.EXPECT().Update(true, req)

		d.Tick()
		c.Tick()

		Expect(d.CommandCount(dram.CmdACT)).To(Equal(uint64(1)))
	})
})

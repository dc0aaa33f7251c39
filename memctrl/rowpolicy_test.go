package memctrl

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/AIALRA-0/Ramulator2-ECC/dram"
)

var _ = Describe("TimeoutRowPolicy", func() {
	It("should precharge a row left idle past the timeout", func() {
		d := buildTestDevice()
		c := MakeBuilder().
			WithDevice(d).
			WithRefreshManager(RefreshNone).
			WithRowPolicy(RowPolicyTimeout).
			WithRowPolicyTimeout(5).
			Build("Ctrl")

		read := NewVecRequest(dram.AddrVec{0, 0, 0, 0, 5, 0}, dram.ReqRead)
		Expect(c.Send(read)).To(BeTrue())

		// ACT at cycle 1, RD at cycle 6; the open-row policy would leave
		// row 5 open forever.
		tick(d, c, 6)
		Expect(d.CheckNodeOpen(dram.CmdRD,
			dram.AddrVec{0, 0, 0, 0, 5, 0})).To(BeTrue())

		// Five idle cycles later the policy requests the precharge.
		tick(d, c, 10)
		Expect(d.CommandCount(dram.CmdPRE)).To(Equal(uint64(1)))
		Expect(d.CheckNodeOpen(dram.CmdRD,
			dram.AddrVec{0, 0, 0, 0, 5, 0})).To(BeFalse())
	})

	It("should not precharge a row that keeps getting used", func() {
		d := buildTestDevice()
		c := MakeBuilder().
			WithDevice(d).
			WithRefreshManager(RefreshNone).
			WithRowPolicy(RowPolicyTimeout).
			WithRowPolicyTimeout(8).
			Build("Ctrl")

		// A steady stream of same-row reads keeps the bank busy.
		for i := 0; i < 6; i++ {
			r := NewVecRequest(
				dram.AddrVec{0, 0, 0, 0, 5, i}, dram.ReqRead)
			Expect(c.Send(r)).To(BeTrue())
		}

		tick(d, c, 24)
		Expect(d.CommandCount(dram.CmdPRE)).To(Equal(uint64(0)))
	})
})

var _ = Describe("RequestBuffer", func() {
	It("should enforce its capacity", func() {
		buf := NewRequestBuffer("Buf", 2)

		Expect(buf.Enqueue(NewRequest(0, dram.ReqRead))).To(BeTrue())
		Expect(buf.Enqueue(NewRequest(1, dram.ReqRead))).To(BeTrue())
		Expect(buf.Enqueue(NewRequest(2, dram.ReqRead))).To(BeFalse())
		Expect(buf.Size()).To(Equal(2))
	})

	It("should keep arrival order across removals", func() {
		buf := NewRequestBuffer("Buf", 4)

		a := NewRequest(0, dram.ReqRead)
		b := NewRequest(1, dram.ReqRead)
		c := NewRequest(2, dram.ReqRead)
		buf.Enqueue(a)
		buf.Enqueue(b)
		buf.Enqueue(c)

		buf.Remove(1)

		Expect(buf.Size()).To(Equal(2))
		Expect(buf.At(0)).To(BeIdenticalTo(a))
		Expect(buf.At(1)).To(BeIdenticalTo(c))
	})
})

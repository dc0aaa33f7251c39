package memctrl

import (
	"log"
	"strconv"

	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
)

// Stats are the controller's per-channel counters. Sums are accumulated
// every cycle; the averages are filled in by Finalize.
type Stats struct {
	RowHits      uint64
	RowMisses    uint64
	RowConflicts uint64

	ReadRowHits      uint64
	ReadRowMisses    uint64
	ReadRowConflicts uint64

	WriteRowHits      uint64
	WriteRowMisses    uint64
	WriteRowConflicts uint64

	ReadRowHitsPerSource      []uint64
	ReadRowMissesPerSource    []uint64
	ReadRowConflictsPerSource []uint64

	NumReadReqs  uint64
	NumWriteReqs uint64
	NumOtherReqs uint64

	QueueLenSum         uint64
	ReadQueueLenSum     uint64
	WriteQueueLenSum    uint64
	PriorityQueueLenSum uint64

	QueueLenAvg         float64
	ReadQueueLenAvg     float64
	WriteQueueLenAvg    float64
	PriorityQueueLenAvg float64

	ReadLatencySum uint64
	AvgReadLatency float64
}

// A Controller serves the memory requests of one channel. Each cycle it
// completes due requests, lets the refresh manager run, picks one request,
// shows the choice to the row policy and plugins, and issues at most one
// DRAM command.
type Controller struct {
	name      string
	channelID int

	device    *dram.Device
	scheduler Scheduler
	rowPolicy RowPolicy
	refresh   RefreshManager
	plugins   []Plugin

	clk sim.Cycle

	readBuffer     *RequestBuffer
	writeBuffer    *RequestBuffer
	priorityBuffer *RequestBuffer
	activeBuffer   *RequestBuffer
	pending        []*Request

	writeMode     bool
	lowWatermark  float64
	highWatermark float64

	stats Stats
}

// Name returns the controller name.
func (c *Controller) Name() string {
	return c.name
}

// Clk returns the controller's current cycle.
func (c *Controller) Clk() sim.Cycle {
	return c.clk
}

// Stats exposes the counters, e.g. to plugins and tests.
func (c *Controller) Stats() *Stats {
	return &c.stats
}

// Send admits a request. Reads that hit a buffered write are served from the
// write buffer directly. Send returns false without side effects when the
// target buffer is full; the caller retries next cycle.
func (c *Controller) Send(req *Request) bool {
	req.FinalCommand = c.device.FinalCommand(req.Type)
	req.Arrive = c.clk

	if req.Type == dram.ReqRead && req.Addr >= 0 &&
		c.forwardFromWriteBuffer(req) {
		c.stats.NumReadReqs++
		return true
	}

	var ok bool
	switch req.Type {
	case dram.ReqRead:
		ok = c.readBuffer.Enqueue(req)
	case dram.ReqWrite:
		ok = c.writeBuffer.Enqueue(req)
	default:
		log.Panicf("request type %s cannot use the read/write path",
			req.Type)
	}

	if !ok {
		req.Arrive = sim.CycleNever
		return false
	}

	switch req.Type {
	case dram.ReqRead:
		c.stats.NumReadReqs++
	case dram.ReqWrite:
		c.stats.NumWriteReqs++
	default:
		c.stats.NumOtherReqs++
	}

	return true
}

// forwardFromWriteBuffer completes a read immediately when a write to the
// same address is still buffered.
func (c *Controller) forwardFromWriteBuffer(req *Request) bool {
	for i := 0; i < c.writeBuffer.Size(); i++ {
		if c.writeBuffer.At(i).Addr == req.Addr {
			req.Depart = c.clk + 1
			c.pending = append(c.pending, req)

			return true
		}
	}

	return false
}

// PrioritySend admits a maintenance request straight onto the priority
// buffer.
func (c *Controller) PrioritySend(req *Request) bool {
	req.FinalCommand = c.device.FinalCommand(req.Type)
	req.Arrive = c.clk

	return c.priorityBuffer.Enqueue(req)
}

// Tick runs one memory-clock cycle of the controller pipeline.
func (c *Controller) Tick() {
	c.clk++

	c.accumulateQueueLengths()
	c.serveCompleted()
	c.refresh.Tick()

	found, idx, buf := c.scheduleRequest()

	var chosen *Request
	if found {
		chosen = buf.At(idx)
	}

	c.rowPolicy.Update(found, chosen)
	for _, p := range c.plugins {
		p.Update(found, chosen)
	}

	if found {
		c.issue(chosen, idx, buf)
	}
}

func (c *Controller) accumulateQueueLengths() {
	read := uint64(c.readBuffer.Size())
	write := uint64(c.writeBuffer.Size())
	priority := uint64(c.priorityBuffer.Size())
	pending := uint64(len(c.pending))

	c.stats.QueueLenSum += read + write + priority + pending
	c.stats.ReadQueueLenSum += read + pending
	c.stats.WriteQueueLenSum += write
	c.stats.PriorityQueueLenSum += priority
}

// serveCompleted pops every pending request whose departure cycle has come
// and runs its callback. Pending is popped in programmed-departure order.
func (c *Controller) serveCompleted() {
	for {
		next := -1
		for i, req := range c.pending {
			if req.Depart <= c.clk &&
				(next < 0 || req.Depart < c.pending[next].Depart) {
				next = i
			}
		}

		if next < 0 {
			return
		}

		req := c.pending[next]
		c.pending = append(c.pending[:next], c.pending[next+1:]...)

		if req.Type == dram.ReqRead && req.Depart-req.Arrive > 1 {
			c.stats.ReadLatencySum += uint64(req.Depart - req.Arrive)
		}

		if req.Callback != nil {
			req.Callback(req)
		}
	}
}

// issue sends the chosen request's current command to the device and moves
// the request to wherever it belongs next.
func (c *Controller) issue(req *Request, idx int, buf *RequestBuffer) {
	if !req.statsUpdated {
		c.updateRequestStats(req)
	}

	c.device.IssueCommand(req.Command, req.AddrVec)

	if req.Command == req.FinalCommand {
		switch req.Type {
		case dram.ReqRead:
			req.Depart = c.clk + sim.Cycle(c.device.ReadLatency())
			c.pending = append(c.pending, req)
		case dram.ReqWrite:
			req.Depart = c.clk
			c.pending = append(c.pending, req)
		}

		buf.Remove(idx)

		return
	}

	if c.device.Spec().Meta[req.Command].IsOpening {
		c.activeBuffer.Enqueue(req)
		buf.Remove(idx)
	}
}

// scheduleRequest picks the request to serve this cycle. Active requests go
// first so opened rows get used; any queued maintenance has absolute
// priority after that; reads and writes come last, split by the write-mode
// watermarks.
func (c *Controller) scheduleRequest() (bool, int, *RequestBuffer) {
	if idx := c.scheduler.BestRequest(c.activeBuffer); idx >= 0 {
		req := c.activeBuffer.At(idx)
		if c.device.CheckReady(req.Command, req.AddrVec) {
			return c.guardChoice(idx, c.activeBuffer)
		}
	}

	if c.priorityBuffer.Size() > 0 {
		req := c.priorityBuffer.At(0)
		req.Command = c.device.PreqCommand(req.FinalCommand, req.AddrVec)

		if !c.device.CheckReady(req.Command, req.AddrVec) {
			// Maintenance is absolute: while it waits, nothing else
			// may claim the cycle.
			return false, -1, nil
		}

		return c.guardChoice(0, c.priorityBuffer)
	}

	c.setWriteMode()

	buf := c.readBuffer
	if c.writeMode {
		buf = c.writeBuffer
	}

	if idx := c.scheduler.BestRequest(buf); idx >= 0 {
		req := buf.At(idx)
		if c.device.CheckReady(req.Command, req.AddrVec) {
			return c.guardChoice(idx, buf)
		}
	}

	return false, -1, nil
}

// guardChoice vetoes choices that would conflict with in-flight requests: a
// closing command must not shut a row group an active request still needs,
// and an opening command needs room in the active buffer.
func (c *Controller) guardChoice(idx int, buf *RequestBuffer) (bool, int, *RequestBuffer) {
	req := buf.At(idx)
	meta := c.device.Spec().Meta[req.Command]

	if meta.IsClosing {
		for i := 0; i < c.activeBuffer.Size(); i++ {
			if c.sameRowGroup(c.activeBuffer.At(i).AddrVec, req.AddrVec) {
				return false, -1, nil
			}
		}
	}

	if meta.IsOpening && req.Command != req.FinalCommand &&
		!c.activeBuffer.CanEnqueue() {
		return false, -1, nil
	}

	return true, idx, buf
}

// sameRowGroup compares two address vectors up to and including the bank
// level, with -1 matching anything.
func (c *Controller) sameRowGroup(a, b dram.AddrVec) bool {
	for i := 0; i <= c.device.Spec().BankLevel; i++ {
		if a[i] != b[i] && a[i] != -1 && b[i] != -1 {
			return false
		}
	}

	return true
}

// setWriteMode applies the two-threshold hysteresis between serving reads
// and writes.
func (c *Controller) setWriteMode() {
	writeLevel := float64(c.writeBuffer.Size())
	capacity := float64(c.writeBuffer.Capacity())

	if !c.writeMode {
		if writeLevel >= c.highWatermark*capacity ||
			c.readBuffer.Size() == 0 {
			c.writeMode = true
		}

		return
	}

	if writeLevel < c.lowWatermark*capacity && c.readBuffer.Size() != 0 {
		c.writeMode = false
	}
}

func (c *Controller) updateRequestStats(req *Request) {
	req.statsUpdated = true

	// Only column accesses have a row to hit; maintenance requests carry
	// broadcast vectors the row predicates cannot descend.
	if req.Type != dram.ReqRead && req.Type != dram.ReqWrite {
		return
	}

	isHit := c.device.CheckRowBufferHit(req.FinalCommand, req.AddrVec)
	isOpen := c.device.CheckNodeOpen(req.FinalCommand, req.AddrVec)

	switch req.Type {
	case dram.ReqRead:
		switch {
		case isHit:
			c.stats.ReadRowHits++
			c.stats.RowHits++
			c.bumpPerSource(c.stats.ReadRowHitsPerSource, req.SourceID)
		case isOpen:
			c.stats.ReadRowConflicts++
			c.stats.RowConflicts++
			c.bumpPerSource(c.stats.ReadRowConflictsPerSource, req.SourceID)
		default:
			c.stats.ReadRowMisses++
			c.stats.RowMisses++
			c.bumpPerSource(c.stats.ReadRowMissesPerSource, req.SourceID)
		}
	case dram.ReqWrite:
		switch {
		case isHit:
			c.stats.WriteRowHits++
			c.stats.RowHits++
		case isOpen:
			c.stats.WriteRowConflicts++
			c.stats.RowConflicts++
		default:
			c.stats.WriteRowMisses++
			c.stats.RowMisses++
		}
	}
}

func (c *Controller) bumpPerSource(counters []uint64, sourceID int) {
	if sourceID >= 0 && sourceID < len(counters) {
		counters[sourceID]++
	}
}

// Finalize computes the derived averages and finalizes the plugins.
func (c *Controller) Finalize() {
	if c.stats.NumReadReqs > 0 {
		c.stats.AvgReadLatency =
			float64(c.stats.ReadLatencySum) / float64(c.stats.NumReadReqs)
	}

	if c.clk > 0 {
		cycles := float64(c.clk)
		c.stats.QueueLenAvg = float64(c.stats.QueueLenSum) / cycles
		c.stats.ReadQueueLenAvg = float64(c.stats.ReadQueueLenSum) / cycles
		c.stats.WriteQueueLenAvg = float64(c.stats.WriteQueueLenSum) / cycles
		c.stats.PriorityQueueLenAvg =
			float64(c.stats.PriorityQueueLenSum) / cycles
	}

	for _, p := range c.plugins {
		p.Finalize()
	}
}

// CollectStats reports the counters as a nested mapping for the stats
// registry.
func (c *Controller) CollectStats() map[string]any {
	m := map[string]any{
		"row_hits":               c.stats.RowHits,
		"row_misses":             c.stats.RowMisses,
		"row_conflicts":          c.stats.RowConflicts,
		"read_row_hits":          c.stats.ReadRowHits,
		"read_row_misses":        c.stats.ReadRowMisses,
		"read_row_conflicts":     c.stats.ReadRowConflicts,
		"write_row_hits":         c.stats.WriteRowHits,
		"write_row_misses":       c.stats.WriteRowMisses,
		"write_row_conflicts":    c.stats.WriteRowConflicts,
		"num_read_reqs":          c.stats.NumReadReqs,
		"num_write_reqs":         c.stats.NumWriteReqs,
		"num_other_reqs":         c.stats.NumOtherReqs,
		"queue_len_avg":          c.stats.QueueLenAvg,
		"read_queue_len_avg":     c.stats.ReadQueueLenAvg,
		"write_queue_len_avg":    c.stats.WriteQueueLenAvg,
		"priority_queue_len_avg": c.stats.PriorityQueueLenAvg,
		"read_latency":           c.stats.ReadLatencySum,
		"avg_read_latency":       c.stats.AvgReadLatency,
	}

	for i := range c.stats.ReadRowHitsPerSource {
		m[perSourceKey("read_row_hits_source", i)] =
			c.stats.ReadRowHitsPerSource[i]
		m[perSourceKey("read_row_misses_source", i)] =
			c.stats.ReadRowMissesPerSource[i]
		m[perSourceKey("read_row_conflicts_source", i)] =
			c.stats.ReadRowConflictsPerSource[i]
	}

	return m
}

func perSourceKey(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i)
}

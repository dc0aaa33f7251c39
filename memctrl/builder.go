package memctrl

import (
	"log"

	"github.com/AIALRA-0/Ramulator2-ECC/dram"
)

// Scheduler, row policy and refresh implementation tags accepted by the
// builder. Configuration loading validates the tags before they get here.
const (
	SchedulerFRFCFS        = "FRFCFS"
	SchedulerPriorityAware = "PriorityAware"

	RowPolicyOpen    = "OpenRow"
	RowPolicyTimeout = "Timeout"

	RefreshAllBank = "AllBank"
	RefreshPerBank = "PerBank"
	RefreshNone    = "None"
)

// A Builder can build controllers.
type Builder struct {
	device    *dram.Device
	channelID int

	schedulerTag string
	rowPolicyTag string
	refreshTag   string

	rowPolicyTimeout int
	refreshInterval  int

	readBufferCap     int
	writeBufferCap    int
	priorityBufferCap int

	lowWatermark  float64
	highWatermark float64

	numSources int

	advisor BudgetAdvisor
	plugins []func() Plugin
}

// MakeBuilder creates a builder with the defaults of the generic
// controller: 32-entry read and write buffers, a deep priority buffer, and
// 0.2 / 0.8 write-mode watermarks.
func MakeBuilder() Builder {
	return Builder{
		schedulerTag:      SchedulerFRFCFS,
		rowPolicyTag:      RowPolicyOpen,
		refreshTag:        RefreshAllBank,
		rowPolicyTimeout:  120,
		readBufferCap:     32,
		writeBufferCap:    32,
		priorityBufferCap: 512*3 + 32,
		lowWatermark:      0.2,
		highWatermark:     0.8,
		numSources:        1,
	}
}

// WithDevice sets the device the controller drives.
func (b Builder) WithDevice(d *dram.Device) Builder {
	b.device = d
	return b
}

// WithChannelID sets the channel this controller owns.
func (b Builder) WithChannelID(id int) Builder {
	b.channelID = id
	return b
}

// WithScheduler selects the scheduler implementation by tag.
func (b Builder) WithScheduler(tag string) Builder {
	b.schedulerTag = tag
	return b
}

// WithRowPolicy selects the row policy implementation by tag.
func (b Builder) WithRowPolicy(tag string) Builder {
	b.rowPolicyTag = tag
	return b
}

// WithRowPolicyTimeout sets the idle cycles before the timeout row policy
// closes a row.
func (b Builder) WithRowPolicyTimeout(cycles int) Builder {
	b.rowPolicyTimeout = cycles
	return b
}

// WithRefreshManager selects the refresh manager implementation by tag.
func (b Builder) WithRefreshManager(tag string) Builder {
	b.refreshTag = tag
	return b
}

// WithRefreshInterval overrides tREFI. Zero keeps the device preset value.
func (b Builder) WithRefreshInterval(cycles int) Builder {
	b.refreshInterval = cycles
	return b
}

// WithReadBufferCap sets the read buffer capacity.
func (b Builder) WithReadBufferCap(n int) Builder {
	b.readBufferCap = n
	return b
}

// WithWriteBufferCap sets the write buffer capacity.
func (b Builder) WithWriteBufferCap(n int) Builder {
	b.writeBufferCap = n
	return b
}

// WithPriorityBufferCap sets the priority buffer capacity. The buffer must
// be deep enough to absorb refresh bursts.
func (b Builder) WithPriorityBufferCap(n int) Builder {
	b.priorityBufferCap = n
	return b
}

// WithWatermarks sets the write-mode hysteresis thresholds as fractions of
// the write buffer capacity.
func (b Builder) WithWatermarks(low, high float64) Builder {
	b.lowWatermark = low
	b.highWatermark = high

	return b
}

// WithNumSources sizes the per-source statistic counters.
func (b Builder) WithNumSources(n int) Builder {
	b.numSources = n
	return b
}

// WithBudgetAdvisor provides the fits predicate for the priority-aware
// scheduler.
func (b Builder) WithBudgetAdvisor(a BudgetAdvisor) Builder {
	b.advisor = a
	return b
}

// WithAdditionalPlugin appends a plugin factory. The factory runs once per
// controller so every channel gets its own plugin instance; plugins run in
// the order they are added.
func (b Builder) WithAdditionalPlugin(factory func() Plugin) Builder {
	b.plugins = append(b.plugins, factory)
	return b
}

// Build builds the controller.
func (b Builder) Build(name string) *Controller {
	if b.device == nil {
		log.Panic("controller requires a device")
	}

	c := &Controller{
		name:          name,
		channelID:     b.channelID,
		device:        b.device,
		lowWatermark:  b.lowWatermark,
		highWatermark: b.highWatermark,
	}

	c.readBuffer = NewRequestBuffer(name+".ReadBuffer", b.readBufferCap)
	c.writeBuffer = NewRequestBuffer(name+".WriteBuffer", b.writeBufferCap)
	c.priorityBuffer = NewRequestBuffer(
		name+".PriorityBuffer", b.priorityBufferCap)
	c.activeBuffer = NewRequestBuffer(
		name+".ActiveBuffer", b.readBufferCap+b.writeBufferCap)

	c.stats.ReadRowHitsPerSource = make([]uint64, b.numSources)
	c.stats.ReadRowMissesPerSource = make([]uint64, b.numSources)
	c.stats.ReadRowConflictsPerSource = make([]uint64, b.numSources)

	c.scheduler = b.buildScheduler()
	c.rowPolicy = b.buildRowPolicy(c)
	c.refresh = b.buildRefresh(c)

	for _, factory := range b.plugins {
		p := factory()
		p.Setup(c)
		c.plugins = append(c.plugins, p)
	}

	return c
}

func (b Builder) buildScheduler() Scheduler {
	switch b.schedulerTag {
	case SchedulerFRFCFS:
		return NewFRFCFS(b.device)
	case SchedulerPriorityAware:
		return NewPriorityAware(b.device, b.advisor)
	default:
		log.Panicf("unknown scheduler %s", b.schedulerTag)
	}

	return nil
}

func (b Builder) buildRowPolicy(c *Controller) RowPolicy {
	switch b.rowPolicyTag {
	case RowPolicyOpen:
		return OpenRowPolicy{}
	case RowPolicyTimeout:
		return NewTimeoutRowPolicy(c, b.rowPolicyTimeout)
	default:
		log.Panicf("unknown row policy %s", b.rowPolicyTag)
	}

	return nil
}

func (b Builder) buildRefresh(c *Controller) RefreshManager {
	spec := b.device.Spec()

	interval := b.refreshInterval
	if interval == 0 {
		interval = spec.RefreshInterval()
	}

	numRanks := spec.Counts[spec.RankLevel]

	switch b.refreshTag {
	case RefreshAllBank:
		return NewAllBankRefresh(c, b.channelID, numRanks, interval)
	case RefreshPerBank:
		return NewPerBankRefresh(
			c, b.channelID, numRanks,
			spec.Counts[spec.RankLevel+1], spec.Counts[spec.BankLevel],
			interval)
	case RefreshNone:
		return NoRefresh{}
	default:
		log.Panicf("unknown refresh manager %s", b.refreshTag)
	}

	return nil
}

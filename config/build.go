package config

import (
	"fmt"

	"github.com/AIALRA-0/Ramulator2-ECC/addrmapper"
	"github.com/AIALRA-0/Ramulator2-ECC/datarecording"
	"github.com/AIALRA-0/Ramulator2-ECC/dram"
	"github.com/AIALRA-0/Ramulator2-ECC/frontend"
	"github.com/AIALRA-0/Ramulator2-ECC/memctrl"
	"github.com/AIALRA-0/Ramulator2-ECC/memsystem"
	"github.com/AIALRA-0/Ramulator2-ECC/sim"
	"github.com/AIALRA-0/Ramulator2-ECC/stats"
)

// A Simulation is a fully-assembled run: the clock driver, the frontend,
// the memory system, and the stats registry.
type Simulation struct {
	Driver    *sim.Driver
	FrontEnd  frontend.FrontEnd
	MemSystem *memsystem.MemSystem
	Registry  *stats.Registry
}

// Build assembles a simulation from the configuration. Every implementation
// tag is validated here; an unknown tag is a configuration error.
func (c *Config) Build() (*Simulation, error) {
	device, err := c.buildDevice()
	if err != nil {
		return nil, err
	}

	mapper, err := c.buildMapper(device)
	if err != nil {
		return nil, err
	}

	ctrlBuilder, err := c.buildControllerBuilder()
	if err != nil {
		return nil, err
	}

	mem := memsystem.MakeBuilder().
		WithDevice(device).
		WithAddrMapper(mapper).
		WithControllerBuilder(ctrlBuilder).
		Build("MemSystem")

	fe, err := c.buildFrontend(mem)
	if err != nil {
		return nil, err
	}

	if c.Frontend.ClockRatio <= 0 || c.MemorySystem.ClockRatio <= 0 {
		return nil, fmt.Errorf("clock ratios must be positive, got %d and %d",
			c.Frontend.ClockRatio, c.MemorySystem.ClockRatio)
	}

	// The configured ratios are relative frequencies (frontend 8 : memory 3
	// means the frontend clock is faster); the driver wants tick periods,
	// which is the other domain's frequency.
	driver := sim.NewDriver()
	driver.Register(fe, c.MemorySystem.ClockRatio)
	driver.Register(mem, c.Frontend.ClockRatio)

	registry := stats.NewRegistry()
	for ch := 0; ch < mem.NumChannels(); ch++ {
		ctrl := mem.Controller(ch)
		registry.Register(ctrl.Name(), ctrl)
	}

	return &Simulation{
		Driver:    driver,
		FrontEnd:  fe,
		MemSystem: mem,
		Registry:  registry,
	}, nil
}

func (c *Config) buildDevice() (*dram.Device, error) {
	cfg := c.MemorySystem.DRAM

	var org dram.Organization
	var timing dram.TimingParams

	switch cfg.Preset {
	case "DDR4":
		org = dram.DDR4Organization()
		timing = dram.DDR4Timing()
	case "HBM2":
		org = dram.HBM2Organization()
		timing = dram.HBM2Timing()
	default:
		return nil, fmt.Errorf("unknown DRAM preset %q", cfg.Preset)
	}

	if cfg.Org != nil {
		applyOrg(&org, cfg.Org)
	}

	if cfg.Timing != nil {
		applyTiming(&timing, cfg.Timing)
	}

	device := dram.MakeBuilder().
		WithPreset(cfg.Preset).
		WithOrganization(org).
		WithTiming(timing).
		Build("DRAM")

	return device, nil
}

func (c *Config) buildMapper(device *dram.Device) (addrmapper.Mapper, error) {
	cfg := c.MemorySystem.AddrMapper

	switch cfg.Impl {
	case "RoBaRaCoCh":
		org := orgOf(device)
		return addrmapper.NewRoBaRaCoCh(org, cfg.AccessBytes)
	default:
		return nil, fmt.Errorf("unknown address mapper %q", cfg.Impl)
	}
}

func orgOf(device *dram.Device) dram.Organization {
	spec := device.Spec()

	return dram.Organization{
		Channels:   spec.Counts[0],
		Ranks:      spec.Counts[spec.RankLevel],
		BankGroups: spec.Counts[spec.RankLevel+1],
		Banks:      spec.Counts[spec.BankLevel],
		Rows:       spec.Counts[spec.RowLevel],
		Columns:    spec.Counts[spec.RowLevel+1],
	}
}

func (c *Config) buildControllerBuilder() (memctrl.Builder, error) {
	cfg := c.MemorySystem.Controller

	b := memctrl.MakeBuilder().
		WithWatermarks(cfg.WrLowWatermark, cfg.WrHighWatermark).
		WithReadBufferCap(cfg.ReadBufferSize).
		WithWriteBufferCap(cfg.WriteBufferSize).
		WithRowPolicyTimeout(cfg.RowPolicyTimeout)

	switch cfg.Scheduler {
	case memctrl.SchedulerFRFCFS, memctrl.SchedulerPriorityAware:
		b = b.WithScheduler(cfg.Scheduler)
	default:
		return b, fmt.Errorf("unknown scheduler %q", cfg.Scheduler)
	}

	switch cfg.RowPolicy {
	case memctrl.RowPolicyOpen, memctrl.RowPolicyTimeout:
		b = b.WithRowPolicy(cfg.RowPolicy)
	default:
		return b, fmt.Errorf("unknown row policy %q", cfg.RowPolicy)
	}

	switch cfg.RefreshManager {
	case memctrl.RefreshAllBank, memctrl.RefreshPerBank, memctrl.RefreshNone:
		b = b.WithRefreshManager(cfg.RefreshManager)
	default:
		return b, fmt.Errorf("unknown refresh manager %q", cfg.RefreshManager)
	}

	for _, p := range cfg.Plugins {
		switch p.Impl {
		case "CommandTrace":
			// One database for the run; every controller gets its own
			// plugin instance and table.
			recorder := datarecording.New(p.Path)
			b = b.WithAdditionalPlugin(func() memctrl.Plugin {
				return memctrl.NewCommandTracePlugin(recorder)
			})
		default:
			return b, fmt.Errorf("unknown plugin %q", p.Impl)
		}
	}

	return b, nil
}

func (c *Config) buildFrontend(mem *memsystem.MemSystem) (frontend.FrontEnd, error) {
	cfg := c.Frontend

	switch cfg.Impl {
	case "LoadStoreTrace":
		return frontend.NewLoadStoreTrace(cfg.Path, mem, cfg.InstructionBudget)
	case "ReadWriteTrace":
		return frontend.NewReadWriteTrace(cfg.Path, mem, cfg.InstructionBudget)
	default:
		return nil, fmt.Errorf("unknown frontend %q", cfg.Impl)
	}
}

func applyOrg(org *dram.Organization, o *OrgConfig) {
	if o.Channels > 0 {
		org.Channels = o.Channels
	}
	if o.Ranks > 0 {
		org.Ranks = o.Ranks
	}
	if o.BankGroups > 0 {
		org.BankGroups = o.BankGroups
	}
	if o.Banks > 0 {
		org.Banks = o.Banks
	}
	if o.Rows > 0 {
		org.Rows = o.Rows
	}
	if o.Columns > 0 {
		org.Columns = o.Columns
	}
}

func applyTiming(t *dram.TimingParams, o *TimingConfig) {
	overrides := []struct {
		value  int
		target *int
	}{
		{o.BL, &t.BL}, {o.CL, &t.CL}, {o.CWL, &t.CWL},
		{o.RCD, &t.RCD}, {o.RP, &t.RP}, {o.RAS, &t.RAS},
		{o.RC, &t.RC}, {o.WR, &t.WR}, {o.RTP, &t.RTP},
		{o.CCDL, &t.CCDL}, {o.CCDS, &t.CCDS},
		{o.RRDL, &t.RRDL}, {o.RRDS, &t.RRDS},
		{o.WTRL, &t.WTRL}, {o.WTRS, &t.WTRS},
		{o.FAW, &t.FAW}, {o.RTRS, &t.RTRS},
		{o.REFI, &t.REFI}, {o.RFC, &t.RFC}, {o.RFCb, &t.RFCb},
		{o.CKESR, &t.CKESR}, {o.XS, &t.XS},
	}

	for _, ov := range overrides {
		if ov.value > 0 {
			*ov.target = ov.value
		}
	}
}

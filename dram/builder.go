package dram

import "log"

// A Builder can build DRAM devices.
type Builder struct {
	preset string
	org    Organization
	timing TimingParams

	orgSet    bool
	timingSet bool
}

// MakeBuilder creates a builder with a DDR4 default configuration.
func MakeBuilder() Builder {
	return Builder{
		preset: "DDR4",
	}
}

// WithPreset selects the device preset, currently "DDR4" or "HBM2".
func (b Builder) WithPreset(preset string) Builder {
	b.preset = preset
	return b
}

// WithOrganization overrides the preset's organization.
func (b Builder) WithOrganization(org Organization) Builder {
	b.org = org
	b.orgSet = true

	return b
}

// WithTiming overrides the preset's timing parameters.
func (b Builder) WithTiming(t TimingParams) Builder {
	b.timing = t
	b.timingSet = true

	return b
}

// Build builds a device. An unknown preset is a bug; configuration loading
// validates the preset name before it reaches the builder.
func (b Builder) Build(name string) *Device {
	var (
		org      Organization
		timing   TimingParams
		rankName string
	)

	switch b.preset {
	case "DDR4":
		org = DDR4Organization()
		timing = DDR4Timing()
		rankName = "rank"
	case "HBM2":
		org = HBM2Organization()
		timing = HBM2Timing()
		rankName = "pseudochannel"
	default:
		log.Panicf("unknown DRAM preset %s", b.preset)
	}

	if b.orgSet {
		org = b.org
	}

	if b.timingSet {
		timing = b.timing
	}

	spec := newSpec(b.preset, rankName, org, timing)

	d := &Device{
		name: name,
		spec: spec,
	}

	for i := 0; i < org.Channels; i++ {
		d.channels = append(d.channels, newNode(spec, nil, 0, i))
	}

	return d
}

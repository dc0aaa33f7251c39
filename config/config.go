// Package config loads the YAML simulation configuration and assembles the
// configured components. Implementation choices are string tags; unknown
// tags are fatal configuration errors.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Frontend     FrontendConfig     `yaml:"Frontend"`
	MemorySystem MemorySystemConfig `yaml:"MemorySystem"`
}

// FrontendConfig selects and parameterizes the frontend.
type FrontendConfig struct {
	Impl       string `yaml:"impl"`
	ClockRatio int    `yaml:"clock_ratio"`
	Path       string `yaml:"path"`

	// InstructionBudget is the number of requests to replay before the
	// simulation finishes. Zero replays the trace once.
	InstructionBudget int64 `yaml:"instruction_budget"`
}

// MemorySystemConfig parameterizes the memory domain.
type MemorySystemConfig struct {
	ClockRatio int              `yaml:"clock_ratio"`
	DRAM       DRAMConfig       `yaml:"DRAM"`
	AddrMapper AddrMapperConfig `yaml:"AddrMapper"`
	Controller ControllerConfig `yaml:"Controller"`
}

// DRAMConfig selects the device preset and its overrides.
type DRAMConfig struct {
	Preset string        `yaml:"preset"`
	Org    *OrgConfig    `yaml:"org"`
	Timing *TimingConfig `yaml:"timing"`
}

// OrgConfig overrides the preset organization. Zero fields keep the preset
// value.
type OrgConfig struct {
	Channels   int `yaml:"channels"`
	Ranks      int `yaml:"ranks"`
	BankGroups int `yaml:"bankgroups"`
	Banks      int `yaml:"banks"`
	Rows       int `yaml:"rows"`
	Columns    int `yaml:"columns"`
}

// TimingConfig overrides preset timing parameters, all in memory cycles.
// Zero fields keep the preset value.
type TimingConfig struct {
	BL    int `yaml:"tBL"`
	CL    int `yaml:"tCL"`
	CWL   int `yaml:"tCWL"`
	RCD   int `yaml:"tRCD"`
	RP    int `yaml:"tRP"`
	RAS   int `yaml:"tRAS"`
	RC    int `yaml:"tRC"`
	WR    int `yaml:"tWR"`
	RTP   int `yaml:"tRTP"`
	CCDL  int `yaml:"tCCDL"`
	CCDS  int `yaml:"tCCDS"`
	RRDL  int `yaml:"tRRDL"`
	RRDS  int `yaml:"tRRDS"`
	WTRL  int `yaml:"tWTRL"`
	WTRS  int `yaml:"tWTRS"`
	FAW   int `yaml:"tFAW"`
	RTRS  int `yaml:"tRTRS"`
	REFI  int `yaml:"tREFI"`
	RFC   int `yaml:"tRFC"`
	RFCb  int `yaml:"tRFCb"`
	CKESR int `yaml:"tCKESR"`
	XS    int `yaml:"tXS"`
}

// AddrMapperConfig selects the address mapper.
type AddrMapperConfig struct {
	Impl        string `yaml:"impl"`
	AccessBytes int    `yaml:"access_bytes"`
}

// ControllerConfig parameterizes the per-channel controllers.
type ControllerConfig struct {
	Scheduler       string         `yaml:"Scheduler"`
	RefreshManager  string         `yaml:"RefreshManager"`
	RowPolicy       string         `yaml:"RowPolicy"`
	Plugins         []PluginConfig `yaml:"plugins"`
	WrLowWatermark  float64        `yaml:"wr_low_watermark"`
	WrHighWatermark float64        `yaml:"wr_high_watermark"`
	ReadBufferSize  int            `yaml:"read_buffer_size"`
	WriteBufferSize int            `yaml:"write_buffer_size"`
	RowPolicyTimeout int           `yaml:"row_policy_timeout"`
}

// PluginConfig selects one controller plugin.
type PluginConfig struct {
	Impl string `yaml:"impl"`
	Path string `yaml:"path"`
}

// Load reads and strictly parses a configuration file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	c := defaultConfig()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}

	return c, nil
}

func defaultConfig() *Config {
	return &Config{
		Frontend: FrontendConfig{
			Impl:       "LoadStoreTrace",
			ClockRatio: 8,
		},
		MemorySystem: MemorySystemConfig{
			ClockRatio: 3,
			DRAM: DRAMConfig{
				Preset: "DDR4",
			},
			AddrMapper: AddrMapperConfig{
				Impl:        "RoBaRaCoCh",
				AccessBytes: 64,
			},
			Controller: ControllerConfig{
				Scheduler:       "FRFCFS",
				RefreshManager:  "AllBank",
				RowPolicy:       "OpenRow",
				WrLowWatermark:  0.2,
				WrHighWatermark: 0.8,
				ReadBufferSize:  32,
				WriteBufferSize: 32,
				RowPolicyTimeout: 120,
			},
		},
	}
}

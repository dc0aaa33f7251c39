// The ramulator command runs a trace-driven DRAM simulation described by a
// YAML configuration file and prints the statistics to standard output.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/AIALRA-0/Ramulator2-ECC/config"
	"github.com/AIALRA-0/Ramulator2-ECC/monitoring"
)

var (
	configPath  string
	monitorFlag bool
	monitorPort int
)

var rootCmd = &cobra.Command{
	Use:   "ramulator",
	Short: "Cycle-accurate DRAM simulation",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "",
		"path to the YAML configuration file")
	rootCmd.Flags().BoolVar(&monitorFlag, "monitor", false,
		"serve live statistics over HTTP while the simulation runs")
	rootCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"port for the monitoring server, 0 picks a free one")

	_ = rootCmd.MarkFlagRequired("config")
}

func run() error {
	// A .env file may set environment defaults such as recorder paths.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	s, err := cfg.Build()
	if err != nil {
		return err
	}

	if monitorFlag {
		monitor := monitoring.NewMonitor().WithPortNumber(monitorPort)
		monitor.RegisterRegistry(s.Registry)
		monitor.StartServer()
	}

	s.Driver.RunUntil(s.FrontEnd.IsFinished)

	s.MemSystem.Finalize()

	if err := s.Registry.Emit(os.Stdout); err != nil {
		return err
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

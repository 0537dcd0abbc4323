package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"histoscan/internal/memguard"
	"histoscan/internal/registry"
)

func newCheckModelCmd(f *rootFlags, getenv func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-model",
		Short: "Report where the model artifact is looked up and whether it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			candidates := registry.Candidates(cfg.ModelPath, cfg.ModelCandidates)
			report := registry.Inspect(candidates)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			art, ok := registry.Resolve(candidates)
			if !ok {
				return fmt.Errorf("model not found; checked %d candidates", len(candidates))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "using %s (%s)\n", art.Path, humanize.Bytes(uint64(art.SizeBytes)))
			return nil
		},
	}
}

func newMemoryCmd(f *rootFlags, getenv func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   "memory",
		Short: "Print the current memory snapshot and guard thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			r, err := memguard.NewProcReader(cfg.ProcPath)
			if err != nil {
				return err
			}
			snap, err := r.Read()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "used:      %.1f%%\n", snap.UsedPercent)
			fmt.Fprintf(out, "available: %s of %s\n", snap.AvailableHuman(), humanize.Bytes(snap.TotalBytes))
			if snap.ProcessRSSBytes > 0 {
				fmt.Fprintf(out, "rss:       %s\n", humanize.Bytes(snap.ProcessRSSBytes))
			}
			fmt.Fprintf(out, "load threshold %.0f%%, admission threshold %.0f%%\n",
				cfg.MemoryThresholdPercent, cfg.AdmissionThresholdPercent)
			return nil
		},
	}
}

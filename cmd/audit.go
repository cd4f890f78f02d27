package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridgeline-health/notegen/internal/monitoring"
	"github.com/ridgeline-health/notegen/internal/store"
)

var (
	auditLookbackHours int
	auditListLimit     int
	auditListType      string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the generation audit log",
}

var auditStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize generation health over a lookback window",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := monitoring.NewCollector(st).Collect(cmd.Context(), auditLookbackHours)
		if err != nil {
			return err
		}

		fmt.Printf("Generation activity, last %dh:\n", snap.LookbackHours)
		fmt.Printf("  total:          %d (%d notes, %d sections)\n", snap.GenerationTotal, snap.ClinicalNotes, snap.Sections)
		fmt.Printf("  succeeded:      %d\n", snap.GenerationSucceeded)
		fmt.Printf("  failed:         %d (%.1f%%)\n", snap.GenerationFailed, snap.GenerationFailRate*100)
		if snap.GenerationSucceeded > 0 {
			fmt.Printf("  avg confidence: %.2f\n", snap.AvgConfidence)
			fmt.Printf("  avg latency:    %.0fms\n", snap.AvgProcessingMS)
			fmt.Printf("  below clean stop: %d\n", snap.LowConfidenceCount)
		}
		return nil
	},
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit entries as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		entries, err := st.ListAudit(cmd.Context(), store.AuditFilter{
			RequestType: auditListType,
			Limit:       auditListLimit,
		})
		if err != nil {
			return err
		}

		for _, e := range entries {
			line, err := json.Marshal(e)
			if err != nil {
				return err
			}
			fmt.Println(string(line))
		}
		return nil
	},
}

func init() {
	auditStatusCmd.Flags().IntVar(&auditLookbackHours, "lookback", 24, "lookback window in hours")
	auditListCmd.Flags().IntVar(&auditListLimit, "limit", 50, "max entries to print")
	auditListCmd.Flags().StringVar(&auditListType, "type", "", "filter by request type (clinical_note, section_content)")
	auditCmd.AddCommand(auditStatusCmd)
	auditCmd.AddCommand(auditListCmd)
	rootCmd.AddCommand(auditCmd)
}

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/infarma/ordergate/internal/batch"
	"github.com/infarma/ordergate/internal/store"
)

// NewBatchCommand creates the batch command: process an uploaded
// shortage archive into candidate order files.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		file      string
		clientID  uint64
		userID    uint64
		addressID uint64
		keep      bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process a shortage archive into auto-order export files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read batch archive: %w", err)
			}

			slog.Info("opening database", "path", cfg.Database.Path)
			st, err := store.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := st.Close(); closeErr != nil {
					slog.Error("error closing database", "error", closeErr)
				}
			}()

			proc, err := batch.New(cmd.Context(), st, clientID, userID, addressID,
				batch.WithRetryBudget(cfg.Batch.MaxAttempts, cfg.Batch.RetryBudget.Std()))
			if err != nil {
				return err
			}
			if !keep {
				defer proc.Cleanup()
			}

			maxOrderID, maxLineID, err := st.SequenceSeeds(cmd.Context())
			if err != nil {
				return err
			}
			seq := batch.Sequences{OrderID: maxOrderID, OrderLineID: maxLineID}

			seq, files, err := proc.ProcessBatch(cmd.Context(), data, seq)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "report:", files.Report)
			fmt.Fprintln(cmd.OutOrStdout(), "orders:", files.Orders)
			fmt.Fprintln(cmd.OutOrStdout(), "items:", files.OrderItems)
			if files.ServiceFields != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "service fields:", files.ServiceFields)
			}
			slog.Info("sequences advanced",
				"orderId", seq.OrderID, "orderLineId", seq.OrderLineID, "reportId", seq.ReportID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "uploaded shortage archive (zip)")
	cmd.Flags().Uint64Var(&clientID, "client", 0, "client id")
	cmd.Flags().Uint64Var(&userID, "user", 0, "submitting user id")
	cmd.Flags().Uint64Var(&addressID, "address", 0, "ordering address id")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the scratch directory with produced files")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("address")

	return cmd
}

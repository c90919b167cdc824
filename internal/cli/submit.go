package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/infarma/ordergate/internal/config"
	"github.com/infarma/ordergate/internal/order"
	"github.com/infarma/ordergate/internal/reorder"
	"github.com/infarma/ordergate/internal/store"
)

// NewSubmitCommand creates the submit command: run the full order
// reconciliation pipeline on a columnar submission file and print the
// per-order result string.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		file      string
		clientID  uint64
		userID    uint64
		addressID uint64
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a columnar order file through the reconciliation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read submission: %w", err)
			}
			var sub order.Submission
			if err := json.Unmarshal(data, &sub); err != nil {
				return fmt.Errorf("decode submission: %w", err)
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

			opts := append(pipelineOptions(cfg), reorder.WithForceSend(force))
			submitter := reorder.New(st, clientID, userID, addressID, opts...)

			if err := submitter.ParseOrders(sub); err != nil {
				return err
			}

			result, err := submitter.Submit(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON submission file")
	cmd.Flags().Uint64Var(&clientID, "client", 0, "client id")
	cmd.Flags().Uint64Var(&userID, "user", 0, "submitting user id")
	cmd.Flags().Uint64Var(&addressID, "address", 0, "ordering address id")
	cmd.Flags().BoolVar(&force, "force", false, "skip price reconciliation (client insists)")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("address")

	return cmd
}

// pipelineOptions maps the validated config policies onto pipeline
// options.
func pipelineOptions(cfg *config.Config) []reorder.Option {
	opts := []reorder.Option{
		reorder.WithDedupWindow(cfg.Pipeline.DedupWindow.Std()),
	}

	if cfg.Pipeline.PersistPolicy == "unless-duplicated" {
		opts = append(opts, reorder.WithPersistPolicy(reorder.PersistUnlessDuplicated))
	} else {
		opts = append(opts, reorder.WithPersistPolicy(reorder.PersistSuccessOnly))
	}

	if cfg.Pipeline.ResultPolicy == "omit-duplicates" {
		opts = append(opts, reorder.WithResultPolicy(order.OmitFullDuplicates))
	} else {
		opts = append(opts, reorder.WithResultPolicy(order.IncludeFullDuplicates))
	}

	if cfg.Pipeline.MatchStrategy == "all" {
		opts = append(opts, reorder.WithMatchStrategy(reorder.MatchAllPrior))
	} else {
		opts = append(opts, reorder.WithMatchStrategy(reorder.MatchLatestOnly))
	}

	return opts
}

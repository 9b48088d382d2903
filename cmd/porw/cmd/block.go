package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwillis775/PoRW-sub001/consensus"
	"github.com/mwillis775/PoRW-sub001/logger"
	"github.com/mwillis775/PoRW-sub001/types"
)

func newBlockCmd(rootConfig *rootConfiguration) *cobra.Command {
	config := &chainConfiguration{root: rootConfig}
	blockCmd := &cobra.Command{
		Use:   "block",
		Short: "Work with candidate blocks",
	}
	blockCmd.PersistentFlags().StringVar(&config.DBFile, "db", "", "ledger database file (default $PORW_HOME/ledger.db)")
	blockCmd.AddCommand(newValidateCmd(config))
	return blockCmd
}

// newValidateCmd validates a candidate block file against the local ledger.
// The work proof is checked with the local result hash evaluator; confidential
// transactions are rejected since no predicate is wired in offline mode.
func newValidateCmd(config *chainConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "validate block-file",
		Short: "Validate a candidate block JSON file for consensus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("failed to read block file: %w", err)
			}
			candidate, err := types.DecodeBlockJSON(data)
			if err != nil {
				return err
			}
			params, err := config.root.params()
			if err != nil {
				return err
			}
			store, err := config.openStore(params)
			if err != nil {
				return err
			}
			defer store.Close()
			log, err := config.root.logger()
			if err != nil {
				return err
			}
			validator, err := consensus.NewValidator(params, store, consensus.ResultHashEvaluator{}, nil, logger.Module(log, "consensus"))
			if err != nil {
				return err
			}
			if err := validator.ValidateBlockForConsensus(cmd.Context(), candidate); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "rejected: %v\n", err)
				return fmt.Errorf("block %s rejected", candidate.Header().Hash)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted: %s\n", candidate.Header().Hash)
			return nil
		},
	}
}

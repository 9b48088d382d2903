package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwillis775/PoRW-sub001/consensus"
	"github.com/mwillis775/PoRW-sub001/keyvaluedb/boltdb"
	"github.com/mwillis775/PoRW-sub001/ledger"
	"github.com/mwillis775/PoRW-sub001/policy"
	"github.com/mwillis775/PoRW-sub001/types"
)

type chainConfiguration struct {
	root   *rootConfiguration
	DBFile string
}

func (c *chainConfiguration) openStore(params consensus.Params) (*ledger.Store, error) {
	dbFile := c.DBFile
	if dbFile == "" {
		dbFile = filepath.Join(c.root.homeDir(), "ledger.db")
	}
	db, err := boltdb.New(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db %s: %w", dbFile, err)
	}
	log, err := c.root.logger()
	if err != nil {
		return nil, err
	}
	return ledger.New(db, params.Fees, log)
}

func newChainCmd(rootConfig *rootConfiguration) *cobra.Command {
	config := &chainConfiguration{root: rootConfig}
	chainCmd := &cobra.Command{
		Use:   "chain",
		Short: "Inspect the canonical chain",
	}
	chainCmd.PersistentFlags().StringVar(&config.DBFile, "db", "", "ledger database file (default $PORW_HOME/ledger.db)")
	chainCmd.AddCommand(newInitCmd(config))
	chainCmd.AddCommand(newSupplyCmd(config))
	chainCmd.AddCommand(newDifficultyCmd(config))
	chainCmd.AddCommand(newHeadCmd(config))
	return chainCmd
}

// newInitCmd creates the ledger db and appends a genesis block built from the
// given work result. Fails when the chain already has a head.
func newInitCmd(config *chainConfiguration) *cobra.Command {
	var workUnitID, result string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a fresh ledger with a genesis block",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.root.params()
			if err != nil {
				return err
			}
			store, err := config.openStore(params)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := store.LatestBlock(); err == nil {
				return fmt.Errorf("ledger is already initialized")
			}
			proof := &types.WorkProof{
				WorkUnitID:   workUnitID,
				Result:       result,
				QualityScore: 100,
				Difficulty:   params.Policy.InitialDifficulty,
				ResultHash:   types.DigestBytes([]byte(result)),
			}
			genesis, err := consensus.NewGenesisBlock(params, proof, time.Now())
			if err != nil {
				return err
			}
			if err := store.Append(genesis); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "genesis block %s\n", genesis.Head.Hash)
			return nil
		},
	}
	initCmd.Flags().StringVar(&workUnitID, "work-unit", "genesis-work-unit", "genesis work unit identifier")
	initCmd.Flags().StringVar(&result, "result", "genesis", "genesis work result")
	return initCmd
}

func newSupplyCmd(config *chainConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "supply",
		Short: "Print the total minted supply",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.root.params()
			if err != nil {
				return err
			}
			store, err := config.openStore(params)
			if err != nil {
				return err
			}
			defer store.Close()
			supply, err := policy.TotalSupply(store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%f\n", supply)
			return nil
		},
	}
}

func newDifficultyCmd(config *chainConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "difficulty",
		Short: "Print the required difficulty for the next PoRW block",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.root.params()
			if err != nil {
				return err
			}
			store, err := config.openStore(params)
			if err != nil {
				return err
			}
			defer store.Close()
			difficulty, err := params.Policy.Difficulty(store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%f\n", difficulty)
			return nil
		},
	}
}

func newHeadCmd(config *chainConfiguration) *cobra.Command {
	return &cobra.Command{
		Use:   "head",
		Short: "Print the chain head block as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.root.params()
			if err != nil {
				return err
			}
			store, err := config.openStore(params)
			if err != nil {
				return err
			}
			defer store.Close()
			head, err := store.LatestBlock()
			if err != nil {
				return err
			}
			data, err := types.EncodeBlockJSON(head)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

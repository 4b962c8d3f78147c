package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightdelivered/transcript-grades/internal/store"
)

var (
	storeSubmissionID string
	storeUserID       string
	storePeriod       string
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored extraction results",
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("store migrated", zap.String("driver", cfg.Store.Driver))
		return nil
	},
}

var storeReplaceCmd = &cobra.Command{
	Use:   "replace <records.json>",
	Short: "Replace a user's stored records for a period",
	Long: `Replace every record stored for --user and --period with the records in the
given file (the JSON output of "extract" or a bare record array).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := readRecordsFile(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sub := store.NewSubmission(storeUserID, storePeriod, filepath.Base(args[0]), res)
		sub.ID = storeSubmissionID
		saved, err := st.ReplaceSubmission(cmd.Context(), sub, res.Records)
		if err != nil {
			return err
		}

		zap.L().Info("submission replaced",
			zap.String("submission", saved.ID),
			zap.String("user", saved.UserID),
			zap.String("period", saved.Period),
			zap.Int("records", saved.RecordCount),
		)
		return writeJSON(cmd, saved)
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's stored records",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.ListRecords(cmd.Context(), storeUserID, storePeriod)
		if err != nil {
			return err
		}
		return writeJSON(cmd, records)
	},
}

func init() {
	storeReplaceCmd.Flags().StringVar(&storeSubmissionID, "submission", "", "submission id (generated when empty)")
	for _, c := range []*cobra.Command{storeReplaceCmd, storeListCmd} {
		c.Flags().StringVar(&storeUserID, "user", "", "user id")
		c.Flags().StringVar(&storePeriod, "period", "", "academic period")
		_ = c.MarkFlagRequired("user")
	}
	storeCmd.AddCommand(storeMigrateCmd, storeReplaceCmd, storeListCmd)
	rootCmd.AddCommand(storeCmd)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "store: encode output")
}

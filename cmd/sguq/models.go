package main

import (
	"fmt"
	"time"

	"github.com/katalvlaran/sparsegrid/store"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var storePath string
	modelsRmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a stored model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer st.Close()
			infos, err := st.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, in := range infos {
				fmt.Fprintf(out, "%s %-20s %-18s dim=%d points=%d %s\n",
					in.ID, in.Name, in.Kind, in.Dim, in.GridSize, in.Created.Format(time.RFC3339))
			}
			return nil
		},
	}
	modelsCmd.PersistentFlags().StringVar(&storePath, "store", "", "Model store")
	_ = modelsCmd.MarkPersistentFlagRequired("store")
	modelsCmd.AddCommand(modelsRmCmd)

	return modelsCmd
}

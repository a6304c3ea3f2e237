package main

import (
	"fmt"

	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/katalvlaran/sparsegrid/store"
	"github.com/spf13/cobra"
)

func newANOVACmd() *cobra.Command {
	var storePath, id string
	var order, top int
	var threshold float64
	anovaCmd := &cobra.Command{
		Use:   "anova",
		Short: "Print the ANOVA decomposition of a stored model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer st.Close()
			rec, err := st.Get(id)
			if err != nil {
				return err
			}
			g, alpha, err := rec.Model.Model()
			if err != nil {
				return err
			}

			opts := []anova.Option{anova.WithThreshold(threshold)}
			if order > 0 {
				opts = append(opts, anova.WithMaxOrder(order))
			}
			dec, err := anova.HDMR(cmd.Context(), g, alpha, opts...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model=%s name=%q kind=%s points=%d\n", rec.ID, rec.Name, rec.Model.Kind, g.Len())
			printDecomposition(out, dec, top, nil)
			return nil
		},
	}
	anovaCmd.Flags().StringVar(&storePath, "store", "", "Model store")
	anovaCmd.Flags().StringVar(&id, "id", "", "Model id")
	anovaCmd.Flags().IntVar(&order, "order", 0, "Largest interaction order (0 = default)")
	anovaCmd.Flags().IntVar(&top, "top", 0, "Number of ranked components to print (0 = all)")
	anovaCmd.Flags().Float64Var(&threshold, "threshold", 0, "Hide components with smaller variance")
	_ = anovaCmd.MarkFlagRequired("store")
	_ = anovaCmd.MarkFlagRequired("id")

	return anovaCmd
}

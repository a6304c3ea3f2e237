package main

import (
	"fmt"

	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/spf13/cobra"
)

func newGridCmd() *cobra.Command {
	var d learner.GridDescriptor
	var list bool
	gridSizeCmd := &cobra.Command{
		Use:   "size",
		Short: "Print the number of points of a regular sparse grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := d.CreateGrid()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dim=%d level=%d t=%g type=%s points=%d\n", d.Dim, d.Level, d.T, g.Type(), g.Len())
			if list {
				for _, x := range g.Coordinates() {
					fmt.Fprintln(out, formatVector(x))
				}
			}
			return nil
		},
	}
	gridSizeCmd.Flags().IntVar(&d.Dim, "dim", 2, "Dimension")
	gridSizeCmd.Flags().IntVar(&d.Level, "level", learner.DefaultGridLevel, "Level n of the regular grid")
	gridSizeCmd.Flags().Float64Var(&d.T, "t", 0, "Generalisation parameter T in [0,1)")
	gridSizeCmd.Flags().StringVar(&d.Type, "type", learner.DefaultGridType, "Grid type: linear, linearboundary, modlinear")
	gridSizeCmd.Flags().IntVar(&d.MaxInteractionOrder, "max-interaction-order", 0, "Largest number of refined dimensions per point (0 = dim)")
	gridSizeCmd.Flags().BoolVar(&list, "list", false, "Also print the coordinates of every point")

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "Sparse-grid utilities",
	}
	gridCmd.AddCommand(gridSizeCmd)

	return gridCmd
}

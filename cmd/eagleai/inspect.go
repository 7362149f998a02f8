package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/inference"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the saved bundle and the categories it accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			b, err := st.Load(ctx)
			if err != nil {
				return err
			}
			svc, err := inference.NewServiceWithBundle(b)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bundle:  %s\n", svc.BundleID())
			fmt.Fprintf(out, "created: %s\n", b.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "classes: %s\n", strings.Join(b.Model.Classes(), ", "))
			for _, col := range data.FeatureSchema.Categorical() {
				choices, err := svc.Choices(ctx, col)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", col, strings.Join(choices, ", "))
			}
			return nil
		},
	}
}

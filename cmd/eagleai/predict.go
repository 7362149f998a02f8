package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/inference"
)

// predictFlags maps flag names to dataset columns.
var predictFlags = []struct {
	flag, column, usage string
}{
	{"edad", data.ColAge, "age in years"},
	{"peso", data.ColWeight, "weight in kg"},
	{"altura", data.ColHeight, "height in m"},
	{"horas-sueno", data.ColSleepHours, "hours of sleep per night"},
	{"desgaste", data.ColWearLevel, "physical wear level"},
	{"medicamentos", data.ColMedication, "takes medication"},
	{"sexo", data.ColSex, "sex"},
	{"tipo-rutina", data.ColRoutineType, "preferred routine type"},
}

func newPredictCmd(a *app) *cobra.Command {
	values := make(map[string]*string, len(predictFlags))
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Recommend a routine from the saved model bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw := make(map[string]string, len(values))
			for col, v := range values {
				raw[col] = *v
			}
			in, err := inference.ParseInput(raw)
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			svc := inference.NewService(st, inference.WithMetrics(a.metrics))
			label, err := svc.Predict(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
	for _, f := range predictFlags {
		values[f.column] = cmd.Flags().String(f.flag, "", f.usage)
		_ = cmd.MarkFlagRequired(f.flag)
	}
	return cmd
}

package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/inference"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/pipeline"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/store"
)

var (
	wearLevels   = []string{"Bajo", "Medio", "Alto"}
	medications  = []string{"No", "Si"}
	sexes        = []string{"Hombre", "Mujer"}
	routineTypes = []string{"Fuerza", "Cardio", "Flexibilidad"}
)

// routineFor is the hidden rule the synthetic labels follow.
func routineFor(f data.Features) string {
	switch {
	case f.WearLevel == "Alto" || f.Medication == "Si" && f.Age > 50:
		return "RutinaC"
	case f.RoutineType == "Cardio" || f.SleepHours < 6:
		return "RutinaB"
	default:
		return "RutinaA"
	}
}

// generateDataset draws n random people and labels them with routineFor.
func generateDataset(rnd *rand.Rand, n int) *data.Dataset {
	ds := &data.Dataset{Records: make([]data.Record, n)}
	for i := range ds.Records {
		f := data.Features{
			Age:         18 + rnd.Intn(60),
			Weight:      50 + rnd.Float64()*50,
			Height:      1.5 + rnd.Float64()*0.45,
			SleepHours:  4 + rnd.Intn(6),
			WearLevel:   wearLevels[rnd.Intn(len(wearLevels))],
			Medication:  medications[rnd.Intn(len(medications))],
			Sex:         sexes[rnd.Intn(len(sexes))],
			RoutineType: routineTypes[rnd.Intn(len(routineTypes))],
		}
		ds.Records[i] = data.Record{Features: f, Routine: routineFor(f)}
	}
	return ds
}

func main() {
	ctx := context.Background()
	logging.Init(logging.Config{Level: "warn", Format: "console", Output: os.Stderr})

	dir, err := os.MkdirTemp("", "routine_demo")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	train := generateDataset(rand.New(rand.NewSource(42)), 500)
	b, rep, err := pipeline.Train(ctx, train)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Trained bundle %s on %d rows, training accuracy %.3f\n", rep.BundleID, rep.Rows, rep.TrainingAccuracy)

	st, err := store.Open(ctx, store.Config{Driver: store.DriverFile, Dir: dir})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()
	if err := st.Save(ctx, b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// serve from disk, never from the in-memory bundle
	svc := inference.NewService(st)
	test := generateDataset(rand.New(rand.NewSource(7)), 10)
	fmt.Println("Recommending routines for unseen people:")
	for _, r := range test.Records {
		f := r.Features
		label, err := svc.Predict(ctx, inference.Input{
			Age: f.Age, Weight: f.Weight, Height: f.Height, SleepHours: f.SleepHours,
			WearLevel: f.WearLevel, Medication: f.Medication, Sex: f.Sex, RoutineType: f.RoutineType,
		})
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Printf("edad=%d desgaste=%s medicamentos=%s tipo=%s → expected %s, predicted %s\n",
			f.Age, f.WearLevel, f.Medication, f.RoutineType, r.Routine, label)
	}

	_, err = svc.Predict(ctx, inference.Input{
		Age: 30, Weight: 70, Height: 1.7, SleepHours: 7,
		WearLevel: "Extremo", Medication: "No", Sex: "Mujer", RoutineType: "Fuerza",
	})
	fmt.Printf("Unknown wear level is rejected: %v (kind %s)\n", err, inference.KindOf(err))
}

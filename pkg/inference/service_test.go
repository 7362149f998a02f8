package inference

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/bundle"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/metrics"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/pipeline"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/store"
)

var records = []data.Record{
	{Features: data.Features{Age: 25, Weight: 70, Height: 1.75, SleepHours: 7, WearLevel: "Medio", Medication: "No", Sex: "Hombre", RoutineType: "Fuerza"}, Routine: "RutinaA"},
	{Features: data.Features{Age: 33, Weight: 61, Height: 1.64, SleepHours: 6, WearLevel: "Bajo", Medication: "Si", Sex: "Mujer", RoutineType: "Cardio"}, Routine: "RutinaB"},
	{Features: data.Features{Age: 48, Weight: 90, Height: 1.82, SleepHours: 5, WearLevel: "Alto", Medication: "Si", Sex: "Hombre", RoutineType: "Flexibilidad"}, Routine: "RutinaC"},
	{Features: data.Features{Age: 60, Weight: 74, Height: 1.70, SleepHours: 8, WearLevel: "Alto", Medication: "No", Sex: "Mujer", RoutineType: "Flexibilidad"}, Routine: "RutinaC"},
}

var rutinaA = Input{
	Age: 25, Weight: 70, Height: 1.75, SleepHours: 7,
	WearLevel: "Medio", Medication: "No", Sex: "Hombre", RoutineType: "Fuerza",
}

func train(t *testing.T) *bundle.Bundle {
	t.Helper()
	b, _, err := pipeline.Train(context.Background(), &data.Dataset{Records: records})
	require.NoError(t, err)
	return b
}

type countingLoader struct {
	mu    sync.Mutex
	calls int
	b     *bundle.Bundle
	err   error
}

func (l *countingLoader) Load(context.Context) (*bundle.Bundle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return l.b, l.err
}

type panickingLoader struct{}

func (panickingLoader) Load(context.Context) (*bundle.Bundle, error) { panic("boom") }

func TestEndToEndThroughStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DriverFile, Dir: t.TempDir()})
	require.NoError(t, err)
	defer st.Close()

	trainedBundle := train(t)
	require.NoError(t, st.Save(ctx, trainedBundle))

	svc := NewService(st)
	assert.Empty(t, svc.BundleID())
	require.NoError(t, svc.Init(ctx))
	assert.Equal(t, trainedBundle.ID, svc.BundleID())

	label, err := svc.Predict(ctx, rutinaA)
	require.NoError(t, err)
	assert.Equal(t, "RutinaA", label)

	for _, r := range records {
		in := Input{
			Age: r.Age, Weight: r.Weight, Height: r.Height, SleepHours: r.SleepHours,
			WearLevel: r.WearLevel, Medication: r.Medication, Sex: r.Sex, RoutineType: r.RoutineType,
		}
		got, err := svc.Predict(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, r.Routine, got)
	}
}

func TestPredictUnknownCategory(t *testing.T) {
	svc, err := NewServiceWithBundle(train(t))
	require.NoError(t, err)

	in := rutinaA
	in.WearLevel = "Extremo"
	label, err := svc.Predict(context.Background(), in)
	assert.Empty(t, label)

	var ie *InferenceError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, KindUnknownCategory, ie.Kind)
	assert.Equal(t, data.ColWearLevel, ie.Field)
	assert.Equal(t, "Extremo", ie.Value)
}

func TestPredictInvalidInput(t *testing.T) {
	svc, err := NewServiceWithBundle(train(t))
	require.NoError(t, err)

	tests := []struct {
		name  string
		in    func(Input) Input
		field string
	}{
		{"negative age", func(in Input) Input { in.Age = -1; return in }, data.ColAge},
		{"zero weight", func(in Input) Input { in.Weight = 0; return in }, data.ColWeight},
		{"nan height", func(in Input) Input { in.Height = math.NaN(); return in }, data.ColHeight},
		{"infinite weight", func(in Input) Input { in.Weight = math.Inf(1); return in }, data.ColWeight},
		{"too much sleep", func(in Input) Input { in.SleepHours = 30; return in }, data.ColSleepHours},
		{"empty sex", func(in Input) Input { in.Sex = ""; return in }, data.ColSex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), tt.in(rutinaA))
			var ie *InferenceError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, KindInvalidInput, ie.Kind)
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}

func TestPredictWithoutBundle(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: store.DriverFile, Dir: t.TempDir()})
	require.NoError(t, err)

	svc := NewService(st)
	_, err = svc.Predict(ctx, rutinaA)
	assert.Equal(t, KindBundleNotFound, KindOf(err))
	assert.ErrorIs(t, err, store.ErrBundleNotFound)

	assert.Equal(t, KindBundleNotFound, KindOf(NewService(nil).Init(ctx)))
}

func TestLoadErrorsAreClassified(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{&store.BundleNotFoundError{Missing: []string{"scaler"}}, KindBundleNotFound},
		{store.ErrBundleMismatch, KindBundleMismatch},
		{store.ErrArtifactCorrupt, KindBundleMismatch},
		{errors.New("connection reset"), KindInternal},
	}
	for _, tt := range tests {
		svc := NewService(&countingLoader{err: tt.err})
		_, err := svc.Predict(context.Background(), rutinaA)
		assert.Equal(t, tt.want, KindOf(err), tt.err.Error())
	}
}

func TestBundleIsLoadedOnce(t *testing.T) {
	l := &countingLoader{b: train(t)}
	svc := NewService(l)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			label, err := svc.Predict(context.Background(), rutinaA)
			assert.NoError(t, err)
			assert.Equal(t, "RutinaA", label)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, l.calls)
}

func TestFailedLoadIsRetried(t *testing.T) {
	l := &countingLoader{err: &store.BundleNotFoundError{Missing: []string{"scaler"}}}
	svc := NewService(l)
	require.Error(t, svc.Init(context.Background()))

	l.b, l.err = train(t), nil
	require.NoError(t, svc.Init(context.Background()))
	assert.Equal(t, 2, l.calls)
}

func TestPanicBecomesInternalError(t *testing.T) {
	svc := NewService(panickingLoader{})
	label, err := svc.Predict(context.Background(), rutinaA)
	assert.Empty(t, label)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestPredictMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(&countingLoader{b: train(t)}, WithMetrics(m))

	_, err := svc.Predict(context.Background(), rutinaA)
	require.NoError(t, err)
	bad := rutinaA
	bad.Sex = "Otro"
	_, err = svc.Predict(context.Background(), bad)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues(metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BundleLoads.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestChoices(t *testing.T) {
	svc, err := NewServiceWithBundle(train(t))
	require.NoError(t, err)

	got, err := svc.Choices(context.Background(), data.ColRoutineType)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cardio", "Flexibilidad", "Fuerza"}, got)

	_, err = svc.Choices(context.Background(), data.ColWeight)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestNewServiceWithInvalidBundle(t *testing.T) {
	b := train(t)
	b.Encoders = nil
	_, err := NewServiceWithBundle(b)
	assert.Equal(t, KindBundleMismatch, KindOf(err))
}

// Package pipeline is the offline training pass: dataset → encoders → scaler →
// decision tree → bundle. Serving never calls into it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/bundle"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/dataprep"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/metrics"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/model"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/stats"
)

// ErrEmptyDataset halts training when there is nothing to learn from.
var ErrEmptyDataset = errors.New("pipeline: dataset has no rows")

// Report summarizes a training pass.
type Report struct {
	BundleID         string
	Rows             int
	Classes          []string
	TrainingAccuracy float64
	Duration         time.Duration
}

// Saver persists a bundle.
type Saver interface {
	Save(ctx context.Context, b *bundle.Bundle) error
}

type options struct {
	tree    []model.Option
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures Train.
type Option func(*options)

// WithTreeOptions passes options to the decision tree.
func WithTreeOptions(opts ...model.Option) Option {
	return func(o *options) { o.tree = append(o.tree, opts...) }
}

// WithMetrics records training metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Train fits every artifact of a bundle on ds.
func Train(ctx context.Context, ds *data.Dataset, opts ...Option) (b *bundle.Bundle, rep *Report, err error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	start := o.now()
	defer func() {
		acc, rows := 0.0, 0
		if rep != nil {
			acc, rows = rep.TrainingAccuracy, rep.Rows
		}
		o.metrics.ObserveTraining(err, rows, acc)
	}()

	if ds.Len() == 0 {
		return nil, nil, ErrEmptyDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	schema := data.FeatureSchema
	encoders, err := dataprep.FitEncoderSet(ds, schema)
	if err != nil {
		return nil, nil, fmt.Errorf("fit encoders: %w", err)
	}
	X, err := encoders.VectorizeAll(schema, ds)
	if err != nil {
		return nil, nil, fmt.Errorf("encode dataset: %w", err)
	}

	scaler := stats.NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		return nil, nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaler.Columns = append([]string(nil), schema.FeatureNames...)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	labels := ds.Labels()
	clf := model.NewRoutineClassifier(o.tree...)
	if err := clf.Fit(scaled, labels); err != nil {
		return nil, nil, fmt.Errorf("fit classifier: %w", err)
	}
	predicted, err := clf.PredictAll(scaled)
	if err != nil {
		return nil, nil, fmt.Errorf("score classifier: %w", err)
	}

	b = bundle.New(clf, scaler, encoders, start)
	if err := b.Validate(); err != nil {
		return nil, nil, err
	}

	rep = &Report{
		BundleID:         b.ID,
		Rows:             ds.Len(),
		Classes:          clf.Classes(),
		TrainingAccuracy: model.Accuracy(labels, predicted),
		Duration:         o.now().Sub(start),
	}
	logging.Info().
		Str("bundle_id", rep.BundleID).
		Int("rows", rep.Rows).
		Int("classes", len(rep.Classes)).
		Float64("training_accuracy", rep.TrainingAccuracy).
		Dur("duration", rep.Duration).
		Msg("training complete")
	return b, rep, nil
}

// Run loads the dataset at path, trains, and saves the resulting bundle.
func Run(ctx context.Context, path string, saver Saver, opts ...Option) (*Report, error) {
	ds, err := data.Load(path)
	if err != nil {
		return nil, err
	}
	b, rep, err := Train(ctx, ds, opts...)
	if err != nil {
		return nil, err
	}
	if err := saver.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("save bundle %s: %w", b.ID, err)
	}
	return rep, nil
}

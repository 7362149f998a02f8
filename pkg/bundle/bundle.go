// Package bundle defines the co-versioned set of artifacts produced by one
// training pass: the classifier, the scaler and one encoder per categorical
// column. The artifacts are only meaningful together.
package bundle

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/dataprep"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/model"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/stats"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("bundle: invalid")

// Role identifies one persisted artifact of a bundle.
type Role string

const (
	RoleModel       Role = "modelo_rutinas"
	RoleScaler      Role = "scaler"
	RoleWearLevel   Role = "desgaste_encoder"
	RoleMedication  Role = "medicamentos_encoder"
	RoleSex         Role = "sexo_encoder"
	RoleRoutineType Role = "tipo_rutina_encoder"
)

// Roles lists every artifact of a bundle in persistence order.
var Roles = []Role{RoleModel, RoleScaler, RoleWearLevel, RoleMedication, RoleSex, RoleRoutineType}

// encoderRoles maps categorical columns to their artifact role.
var encoderRoles = map[string]Role{
	data.ColWearLevel:   RoleWearLevel,
	data.ColMedication:  RoleMedication,
	data.ColSex:         RoleSex,
	data.ColRoutineType: RoleRoutineType,
}

// EncoderRole returns the artifact role of the encoder for column.
func EncoderRole(column string) (Role, bool) {
	r, ok := encoderRoles[column]
	return r, ok
}

// ColumnForRole returns the categorical column persisted under role.
func ColumnForRole(role Role) (string, bool) {
	for col, r := range encoderRoles {
		if r == role {
			return col, true
		}
	}
	return "", false
}

// Bundle is the output of one training pass.
type Bundle struct {
	ID        string
	CreatedAt time.Time
	Model     *model.RoutineClassifier
	Scaler    *stats.StandardScaler
	Encoders  dataprep.EncoderSet
}

// New stamps a fresh bundle ID on the artifacts of one training pass.
func New(m *model.RoutineClassifier, s *stats.StandardScaler, enc dataprep.EncoderSet, createdAt time.Time) *Bundle {
	return &Bundle{
		ID:        uuid.NewString(),
		CreatedAt: createdAt.UTC(),
		Model:     m,
		Scaler:    s,
		Encoders:  enc,
	}
}

// Validate checks that every artifact is present, fitted, and laid out for
// data.FeatureSchema.
func (b *Bundle) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bundle", ErrInvalid)
	}
	if b.ID == "" {
		return fmt.Errorf("%w: missing bundle id", ErrInvalid)
	}
	if !b.Model.Fitted() {
		return fmt.Errorf("%w: model not fitted", ErrInvalid)
	}
	if b.Scaler == nil || !b.Scaler.Fitted() {
		return fmt.Errorf("%w: scaler not fitted", ErrInvalid)
	}
	if b.Scaler.NumFeatures() != data.FeatureSchema.Len() {
		return fmt.Errorf("%w: scaler has %d features, want %d", ErrInvalid, b.Scaler.NumFeatures(), data.FeatureSchema.Len())
	}
	if !slices.Equal(b.Scaler.Columns, data.FeatureSchema.FeatureNames) {
		return fmt.Errorf("%w: scaler columns %v do not match feature schema", ErrInvalid, b.Scaler.Columns)
	}
	for _, col := range data.FeatureSchema.Categorical() {
		enc, ok := b.Encoders[col]
		if !ok || enc == nil {
			return fmt.Errorf("%w: missing encoder for %s", ErrInvalid, col)
		}
		if enc.Column() != col {
			return fmt.Errorf("%w: encoder for %s was fit on %s", ErrInvalid, col, enc.Column())
		}
	}
	return nil
}

// Vectorize encodes f into the unscaled feature vector.
func (b *Bundle) Vectorize(f data.Features) ([]float64, error) {
	return b.Encoders.Vectorize(data.FeatureSchema, f)
}

// Predict runs encode, scale and classify for one set of features.
func (b *Bundle) Predict(f data.Features) (string, error) {
	row, err := b.Vectorize(f)
	if err != nil {
		return "", err
	}
	scaled, err := b.Scaler.TransformRow(row)
	if err != nil {
		return "", err
	}
	return b.Model.Predict(scaled)
}

// Choices returns the codebook of a categorical column.
func (b *Bundle) Choices(column string) ([]string, error) {
	enc, ok := b.Encoders[column]
	if !ok {
		return nil, fmt.Errorf("bundle: %s is not a categorical column", column)
	}
	return enc.Classes(), nil
}

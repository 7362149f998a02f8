package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/bundle"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/dataprep"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/model"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/stats"
)

var (
	// ErrBundleNotFound is matched by every BundleNotFoundError.
	ErrBundleNotFound = errors.New("model bundle not found")
	// ErrBundleMismatch means the stored artifacts come from different training passes.
	ErrBundleMismatch = errors.New("model bundle artifacts are inconsistent")
	// ErrArtifactCorrupt means an artifact failed its checksum or could not be decoded.
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
)

// BundleNotFoundError lists the artifacts that were absent at load time.
type BundleNotFoundError struct {
	Missing []string
}

func (e *BundleNotFoundError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrBundleNotFound, strings.Join(e.Missing, ", "))
}

func (e *BundleNotFoundError) Is(target error) bool { return target == ErrBundleNotFound }

// envelope is the persisted form of one artifact.
type envelope struct {
	BundleID  string
	Role      string
	CreatedAt time.Time
	Checksum  string
	Payload   []byte
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Store reads and writes whole bundles.
type Store struct {
	backend Backend
}

// New wraps backend.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend { return s.backend }

// Close releases the backend.
func (s *Store) Close() error { return s.backend.Close() }

func artifactOf(b *bundle.Bundle, role bundle.Role) (encoding.BinaryMarshaler, error) {
	switch role {
	case bundle.RoleModel:
		return b.Model, nil
	case bundle.RoleScaler:
		return b.Scaler, nil
	}
	col, ok := bundle.ColumnForRole(role)
	if !ok {
		return nil, fmt.Errorf("store: unknown role %q", role)
	}
	return b.Encoders[col], nil
}

// Save writes every artifact of b. All envelopes are encoded before the
// first write, so an encoding failure leaves the backend untouched.
func (s *Store) Save(ctx context.Context, b *bundle.Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}

	blobs := make([][]byte, len(bundle.Roles))
	for i, role := range bundle.Roles {
		art, err := artifactOf(b, role)
		if err != nil {
			return err
		}
		payload, err := art.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode %s: %w", role, err)
		}
		var buf bytes.Buffer
		env := envelope{
			BundleID:  b.ID,
			Role:      string(role),
			CreatedAt: b.CreatedAt,
			Checksum:  checksum(payload),
			Payload:   payload,
		}
		if err := gob.NewEncoder(&buf).Encode(env); err != nil {
			return fmt.Errorf("encode %s envelope: %w", role, err)
		}
		blobs[i] = buf.Bytes()
	}

	for i, role := range bundle.Roles {
		if err := s.backend.Put(ctx, string(role), blobs[i]); err != nil {
			return fmt.Errorf("write %s: %w", role, err)
		}
	}
	logging.Info().Str("bundle_id", b.ID).Int("artifacts", len(blobs)).Msg("model bundle saved")
	return nil
}

// Load reads all six artifacts and reassembles the bundle. It never returns a
// partially populated bundle.
func (s *Store) Load(ctx context.Context) (*bundle.Bundle, error) {
	// absence is reported before any artifact is decoded
	raws := make(map[bundle.Role][]byte, len(bundle.Roles))
	var missing []string
	for _, role := range bundle.Roles {
		raw, err := s.backend.Get(ctx, string(role))
		if errors.Is(err, ErrArtifactNotFound) {
			missing = append(missing, string(role))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", role, err)
		}
		raws[role] = raw
	}
	if len(missing) > 0 {
		return nil, &BundleNotFoundError{Missing: missing}
	}

	envs := make(map[bundle.Role]envelope, len(bundle.Roles))
	for _, role := range bundle.Roles {
		env, err := decodeEnvelope(role, raws[role])
		if err != nil {
			return nil, err
		}
		envs[role] = env
	}

	id := envs[bundle.RoleModel].BundleID
	for _, role := range bundle.Roles {
		if got := envs[role].BundleID; got != id {
			return nil, fmt.Errorf("%w: %s belongs to bundle %s, %s to %s", ErrBundleMismatch, role, got, bundle.RoleModel, id)
		}
	}

	b := &bundle.Bundle{
		ID:        id,
		CreatedAt: envs[bundle.RoleModel].CreatedAt,
		Model:     &model.RoutineClassifier{},
		Scaler:    &stats.StandardScaler{},
		Encoders:  make(dataprep.EncoderSet, len(bundle.Roles)-2),
	}
	if err := b.Model.UnmarshalBinary(envs[bundle.RoleModel].Payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, bundle.RoleModel, err)
	}
	if err := b.Scaler.UnmarshalBinary(envs[bundle.RoleScaler].Payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, bundle.RoleScaler, err)
	}
	for _, col := range data.FeatureSchema.Categorical() {
		role, _ := bundle.EncoderRole(col)
		enc := &dataprep.LabelEncoder{}
		if err := enc.UnmarshalBinary(envs[role].Payload); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, role, err)
		}
		b.Encoders[col] = enc
	}

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBundleMismatch, err)
	}
	logging.Debug().Str("bundle_id", b.ID).Time("created_at", b.CreatedAt).Msg("model bundle loaded")
	return b, nil
}

func decodeEnvelope(role bundle.Role, raw []byte) (envelope, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return envelope{}, fmt.Errorf("%w: %s: %w", ErrArtifactCorrupt, role, err)
	}
	if env.Role != string(role) {
		return envelope{}, fmt.Errorf("%w: artifact %s holds role %s", ErrBundleMismatch, role, env.Role)
	}
	if checksum(env.Payload) != env.Checksum {
		return envelope{}, fmt.Errorf("%w: %s: checksum mismatch", ErrArtifactCorrupt, role)
	}
	return env, nil
}

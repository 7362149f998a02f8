package data

// Column names of the routine dataset, in file order.
const (
	ColAge         = "edad"
	ColWeight      = "peso"
	ColHeight      = "altura"
	ColSleepHours  = "horas_sueño"
	ColWearLevel   = "desgaste_fisico"
	ColMedication  = "medicamentos"
	ColSex         = "sexo"
	ColRoutineType = "tipo_rutina"
	ColRoutine     = "rutina"
)

// Columns is the canonical header. Order is fixed.
var Columns = []string{
	ColAge, ColWeight, ColHeight, ColSleepHours,
	ColWearLevel, ColMedication, ColSex, ColRoutineType,
	ColRoutine,
}

// Feature column types.
const (
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeCategory = "category"
)

// Schema describes the structure of a dataset.
type Schema struct {
	FeatureNames []string
	Types        []string // e.g., "float", "int", "category"
}

// FeatureSchema is the feature layout used at training and inference time.
// The label column is not part of it.
var FeatureSchema = Schema{
	FeatureNames: []string{
		ColAge, ColWeight, ColHeight, ColSleepHours,
		ColWearLevel, ColMedication, ColSex, ColRoutineType,
	},
	Types: []string{
		TypeInt, TypeFloat, TypeFloat, TypeInt,
		TypeCategory, TypeCategory, TypeCategory, TypeCategory,
	},
}

// Len returns the number of features.
func (s Schema) Len() int { return len(s.FeatureNames) }

// Categorical returns the names of the categorical features in schema order.
func (s Schema) Categorical() []string {
	var out []string
	for i, name := range s.FeatureNames {
		if s.Types[i] == TypeCategory {
			out = append(out, name)
		}
	}
	return out
}

// Index returns the position of a feature, or -1.
func (s Schema) Index(name string) int {
	for i, n := range s.FeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}

// IsCategorical reports whether name is a categorical feature.
func (s Schema) IsCategorical(name string) bool {
	i := s.Index(name)
	return i >= 0 && s.Types[i] == TypeCategory
}

package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sampleCSV = "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n" +
	"25,70,1.75,7,Medio,No,Hombre,Fuerza,RutinaA\n" +
	"32,58.5,1.62,6,Alto,Sí,Mujer,Running,RutinaB\n" +
	"41,90,1.80,8.0,Bajo,No,Hombre,Hipertrofia,RutinaC\n"

func writeFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rutinas.csv")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestLoadUTF8(t *testing.T) {
	ds, err := Load(writeFile(t, []byte(sampleCSV)))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	first := ds.Records[0]
	assert.Equal(t, 25, first.Age)
	assert.Equal(t, 70.0, first.Weight)
	assert.Equal(t, 1.75, first.Height)
	assert.Equal(t, 7, first.SleepHours)
	assert.Equal(t, "Medio", first.WearLevel)
	assert.Equal(t, "RutinaA", first.Routine)

	assert.Equal(t, "Sí", ds.Records[1].Medication)
	assert.Equal(t, 8, ds.Records[2].SleepHours)
}

func TestParseFallsBackToLegacyEncoding(t *testing.T) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	ds, enc, err := Parse([]byte(latin1))
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", enc)
	assert.Equal(t, "Sí", ds.Records[1].Medication)
}

func TestParseStripsBOM(t *testing.T) {
	ds, enc, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, sampleCSV...))
	require.NoError(t, err)
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, 3, ds.Len())
}

func TestLoadMissingFileCreatesEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rutinas.csv")

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n", string(raw))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Len())
}

func TestLoadFormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"wrong header", "age,weight,height,sleep,wear,meds,sex,type,routine\n"},
		{"missing column", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina\n"},
		{"bad number", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\nveinte,70,1.75,7,Medio,No,Hombre,Fuerza,A\n"},
		{"fractional age", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n25.5,70,1.75,7,Medio,No,Hombre,Fuerza,A\n"},
		{"huge age", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n1e300,70,1.75,7,Medio,No,Hombre,Fuerza,A\n"},
		{"huge sleep hours", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n25,70,1.75,-3e10,Medio,No,Hombre,Fuerza,A\n"},
		{"empty category", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n25,70,1.75,7,,No,Hombre,Fuerza,A\n"},
		{"short row", "edad,peso,altura,horas_sueño,desgaste_fisico,medicamentos,sexo,tipo_rutina,rutina\n25,70,1.75\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, []byte(tt.content))
			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDatasetFormat))

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, path, fe.Path)
			assert.Len(t, fe.Attempts, len(encodings))
		})
	}
}

func TestWriteThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	in := &Dataset{Records: []Record{
		{Features: Features{Age: 30, Weight: 65.25, Height: 1.7, SleepHours: 8, WearLevel: "Bajo", Medication: "No", Sex: "Mujer", RoutineType: "Flexibilidad"}, Routine: "RutinaF"},
	}}
	require.NoError(t, Write(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in.Records, out.Records)
}

func TestDatasetColumn(t *testing.T) {
	ds, _, err := Parse([]byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Medio", "Alto", "Bajo"}, ds.Column(ColWearLevel))
	assert.Equal(t, []string{"RutinaA", "RutinaB", "RutinaC"}, ds.Labels())
	assert.Nil(t, ds.Column(ColAge))
}

func TestFeatureSchema(t *testing.T) {
	assert.Equal(t, 8, FeatureSchema.Len())
	assert.Equal(t, []string{ColWearLevel, ColMedication, ColSex, ColRoutineType}, FeatureSchema.Categorical())
	assert.Equal(t, 3, FeatureSchema.Index(ColSleepHours))
	assert.Equal(t, -1, FeatureSchema.Index(ColRoutine))
	assert.True(t, FeatureSchema.IsCategorical(ColSex))
	assert.False(t, FeatureSchema.IsCategorical(ColAge))
	assert.Equal(t, Columns[:8], FeatureSchema.FeatureNames)
}

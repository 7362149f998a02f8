package inference

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/data"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/validation"
)

// Input is one inference request. Struct tags name the dataset column of each field.
type Input struct {
	Age         int     `col:"edad" validate:"gte=0,lte=150"`
	Weight      float64 `col:"peso" validate:"gt=0"`
	Height      float64 `col:"altura" validate:"gt=0"`
	SleepHours  int     `col:"horas_sueño" validate:"gte=0,lte=24"`
	WearLevel   string  `col:"desgaste_fisico" validate:"required"`
	Medication  string  `col:"medicamentos" validate:"required"`
	Sex         string  `col:"sexo" validate:"required"`
	RoutineType string  `col:"tipo_rutina" validate:"required"`
}

// Features converts in to the dataset representation.
func (in Input) Features() data.Features {
	return data.Features{
		Age:         in.Age,
		Weight:      in.Weight,
		Height:      in.Height,
		SleepHours:  in.SleepHours,
		WearLevel:   strings.TrimSpace(in.WearLevel),
		Medication:  strings.TrimSpace(in.Medication),
		Sex:         strings.TrimSpace(in.Sex),
		RoutineType: strings.TrimSpace(in.RoutineType),
	}
}

// Validate checks ranges and required fields. The error is an InvalidInput InferenceError.
func (in Input) Validate() error {
	for _, f := range []struct {
		col string
		v   float64
	}{{data.ColWeight, in.Weight}, {data.ColHeight, in.Height}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &InferenceError{Kind: KindInvalidInput, Field: f.col, Value: fmt.Sprint(f.v), Err: fmt.Errorf("%s must be finite", f.col)}
		}
	}
	err := validation.Struct(in)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validation.Errors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &InferenceError{Kind: KindInvalidInput, Field: fe.Field, Value: fmt.Sprint(fe.Value), Err: err}
	}
	return &InferenceError{Kind: KindInvalidInput, Err: err}
}

// ParseInput builds an Input from raw strings keyed by dataset column name.
// Integral columns accept values such as "25.0".
func ParseInput(raw map[string]string) (Input, error) {
	var in Input
	var err error
	if in.Age, err = parseInt(raw, data.ColAge); err != nil {
		return Input{}, err
	}
	if in.Weight, err = parseFloat(raw, data.ColWeight); err != nil {
		return Input{}, err
	}
	if in.Height, err = parseFloat(raw, data.ColHeight); err != nil {
		return Input{}, err
	}
	if in.SleepHours, err = parseInt(raw, data.ColSleepHours); err != nil {
		return Input{}, err
	}
	in.WearLevel = strings.TrimSpace(raw[data.ColWearLevel])
	in.Medication = strings.TrimSpace(raw[data.ColMedication])
	in.Sex = strings.TrimSpace(raw[data.ColSex])
	in.RoutineType = strings.TrimSpace(raw[data.ColRoutineType])
	return in, nil
}

func parseFloat(raw map[string]string, col string) (float64, error) {
	s := strings.TrimSpace(raw[col])
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &InferenceError{Kind: KindInvalidInput, Field: col, Value: s, Err: errors.New("not a number")}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InferenceError{Kind: KindInvalidInput, Field: col, Value: s, Err: errors.New("not a finite number")}
	}
	return v, nil
}

func parseInt(raw map[string]string, col string) (int, error) {
	v, err := parseFloat(raw, col)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, &InferenceError{Kind: KindInvalidInput, Field: col, Value: strings.TrimSpace(raw[col]), Err: errors.New("not an integer")}
	}
	return int(v), nil
}

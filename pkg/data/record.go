package data

// Features are the eight user-facing attributes a routine is recommended from.
type Features struct {
	Age         int
	Weight      float64
	Height      float64
	SleepHours  int
	WearLevel   string
	Medication  string
	Sex         string
	RoutineType string
}

// Record is one training example.
type Record struct {
	Features
	Routine string
}

// Numeric returns the value of a numeric feature column.
func (f Features) Numeric(col string) (float64, bool) {
	switch col {
	case ColAge:
		return float64(f.Age), true
	case ColWeight:
		return f.Weight, true
	case ColHeight:
		return f.Height, true
	case ColSleepHours:
		return float64(f.SleepHours), true
	}
	return 0, false
}

// Category returns the value of a categorical feature column.
func (f Features) Category(col string) (string, bool) {
	switch col {
	case ColWearLevel:
		return f.WearLevel, true
	case ColMedication:
		return f.Medication, true
	case ColSex:
		return f.Sex, true
	case ColRoutineType:
		return f.RoutineType, true
	}
	return "", false
}

// Dataset is an in-memory routine dataset.
type Dataset struct {
	Records []Record
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Column returns the string values of a categorical or label column.
// Numeric columns yield nil.
func (d *Dataset) Column(col string) []string {
	if d == nil {
		return nil
	}
	if col == ColRoutine {
		out := make([]string, len(d.Records))
		for i, r := range d.Records {
			out[i] = r.Routine
		}
		return out
	}
	if _, ok := (Features{}).Category(col); !ok {
		return nil
	}
	out := make([]string, len(d.Records))
	for i, r := range d.Records {
		out[i], _ = r.Category(col)
	}
	return out
}

// Labels returns the routine label column.
func (d *Dataset) Labels() []string { return d.Column(ColRoutine) }

package data

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
)

// ErrDatasetFormat is matched by every FormatError.
var ErrDatasetFormat = errors.New("dataset format error")

// Attempt records why one text encoding was rejected.
type Attempt struct {
	Encoding string
	Err      error
}

// FormatError is returned when a dataset cannot be parsed under any supported encoding.
type FormatError struct {
	Path     string
	Attempts []Attempt
}

func (e *FormatError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Encoding, a.Err))
	}
	return fmt.Sprintf("dataset %s unreadable (%s)", e.Path, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrDatasetFormat) hold.
func (e *FormatError) Is(target error) bool { return target == ErrDatasetFormat }

// Unwrap exposes the per-encoding errors.
func (e *FormatError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a.Err)
	}
	return out
}

type textEncoding struct {
	name   string
	decode func([]byte) (string, error)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodings are tried in order; the first one that yields a valid dataset wins.
var encodings = []textEncoding{
	{name: "utf-8", decode: func(b []byte) (string, error) {
		b = bytes.TrimPrefix(b, utf8BOM)
		if !utf8.Valid(b) {
			return "", errors.New("invalid utf-8 byte sequence")
		}
		return string(b), nil
	}},
	{name: "windows-1252", decode: func(b []byte) (string, error) {
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		if bytes.ContainsRune(out, utf8.RuneError) {
			return "", errors.New("undefined windows-1252 byte")
		}
		return string(out), nil
	}},
	{name: "iso-8859-1", decode: func(b []byte) (string, error) {
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}},
}

// Load reads the dataset at path. A missing file is replaced by an empty dataset
// with the canonical header, which is also written to path.
func Load(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		ds := &Dataset{}
		if err := Write(path, ds); err != nil {
			return nil, fmt.Errorf("create empty dataset %s: %w", path, err)
		}
		logging.Warn().Str("path", path).Msg("dataset not found, created empty dataset")
		return ds, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	ds, enc, err := Parse(raw)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	logging.Info().Str("path", path).Str("encoding", enc).Int("rows", ds.Len()).Msg("dataset loaded")
	return ds, nil
}

// Parse decodes raw CSV bytes, returning the dataset and the encoding that worked.
func Parse(raw []byte) (*Dataset, string, error) {
	fe := &FormatError{Path: "<memory>"}
	for _, enc := range encodings {
		text, err := enc.decode(raw)
		if err == nil {
			var records []Record
			records, err = parseCSV(strings.NewReader(text))
			if err == nil {
				return &Dataset{Records: records}, enc.name, nil
			}
		}
		logging.Debug().Str("encoding", enc.name).Err(err).Msg("dataset encoding rejected")
		fe.Attempts = append(fe.Attempts, Attempt{Encoding: enc.name, Err: err})
	}
	return nil, "", fe
}

func parseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Columns)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, col := range Columns {
		if strings.TrimSpace(header[i]) != col {
			return nil, fmt.Errorf("header column %d is %q, want %q", i, header[i], col)
		}
	}

	var records []Record
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		parsed, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, parsed)
	}
	return records, nil
}

func parseRecord(fields []string) (Record, error) {
	var r Record
	var err error
	if r.Age, err = parseInt(ColAge, fields[0]); err != nil {
		return r, err
	}
	if r.Weight, err = parseFloat(ColWeight, fields[1]); err != nil {
		return r, err
	}
	if r.Height, err = parseFloat(ColHeight, fields[2]); err != nil {
		return r, err
	}
	if r.SleepHours, err = parseInt(ColSleepHours, fields[3]); err != nil {
		return r, err
	}
	cats := []*string{&r.WearLevel, &r.Medication, &r.Sex, &r.RoutineType, &r.Routine}
	for i, dst := range cats {
		v := strings.TrimSpace(fields[4+i])
		if v == "" {
			return r, fmt.Errorf("%s: empty value", Columns[4+i])
		}
		*dst = v
	}
	return r, nil
}

func parseFloat(col, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", col, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %q is not finite", col, s)
	}
	return v, nil
}

// parseInt accepts "25" as well as "25.0", which is how float-typed writers emit integers.
func parseInt(col, s string) (int, error) {
	v, err := parseFloat(col, s)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%s: %q is not an integer", col, s)
	}
	return int(v), nil
}

// Write stores ds at path as UTF-8 CSV with the canonical header.
func Write(path string, ds *Dataset) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dataset-*.csv")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		_ = tmp.Close()
		return err
	}
	if ds != nil {
		for _, r := range ds.Records {
			row := []string{
				strconv.Itoa(r.Age),
				strconv.FormatFloat(r.Weight, 'g', -1, 64),
				strconv.FormatFloat(r.Height, 'g', -1, 64),
				strconv.Itoa(r.SleepHours),
				r.WearLevel, r.Medication, r.Sex, r.RoutineType, r.Routine,
			}
			if err := w.Write(row); err != nil {
				_ = tmp.Close()
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

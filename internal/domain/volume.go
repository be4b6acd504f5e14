package domain

import (
	"fmt"
	"path/filepath"
	"time"
)

// Attributes is a free-form string-keyed metadata mapping, attached either
// to a whole volume (global attributes) or to a single field.
type Attributes map[string]any

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) String(key string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Clone returns a shallow copy of the attribute mapping.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Field is one named variable of a radar volume: a flat typed array plus its
// dimension names and per-field attributes. Data holds one of []float64,
// []float32, []int32, []int16, []int8, []string, or a scalar; Shape records
// the original array extents in row-major order.
type Field struct {
	Data       any
	Shape      []int
	Dimensions []string
	Attrs      Attributes
}

// Size returns the number of elements implied by the field's shape.
func (f *Field) Size() int {
	if len(f.Shape) == 0 {
		return 1
	}
	n := 1
	for _, d := range f.Shape {
		n *= d
	}
	return n
}

// Volume is one radar volume scan held in memory between a read and a write.
// Moment fields (time x range arrays) live in Fields; coordinate and sweep
// geometry variables in Auxiliary; the instrument-parameter and calibration
// substructures are kept separate so policies can copy or clear them wholesale.
type Volume struct {
	Fields               map[string]*Field
	Auxiliary            map[string]*Field
	InstrumentParameters map[string]*Field
	Calibration          map[string]*Field
	GlobalAttrs          Attributes

	StartTime time.Time
	EndTime   time.Time
}

// Naming is the fixed output filename template for a processing level:
// <site>.<level>.<YYYYMMDD>.<HHMM>00.nc.
type Naming struct {
	Site  string
	Level string
}

// Filename derives the output filename from the volume start timestamp,
// truncated to the minute.
func (n Naming) Filename(start time.Time) string {
	return fmt.Sprintf("%s.%s.%s00.nc", n.Site, n.Level, start.UTC().Format("20060102.1504"))
}

// OutputPath derives the canonical output location under root:
// <root>/<year>/<YYYYMMDD>/<filename>. It is a pure function of the start
// timestamp and the naming template; two volumes sharing a start minute
// collide on the same path.
func (n Naming) OutputPath(root string, start time.Time) string {
	start = start.UTC()
	return filepath.Join(root, start.Format("2006"), start.Format("20060102"), n.Filename(start))
}

package domain

import (
	"fmt"
	"math"
)

// FieldStatus is the per-field outcome of applying a policy. Normalization
// failures are recoverable: a failed or absent field never aborts the
// transform of the volume it belongs to.
type FieldStatus string

const (
	FieldNormalized FieldStatus = "normalized"
	FieldRenamed    FieldStatus = "renamed"
	FieldDropped    FieldStatus = "dropped"
	FieldKept       FieldStatus = "kept"
	FieldAbsent     FieldStatus = "absent"
	FieldFailed     FieldStatus = "failed"
)

// FieldResult reports what happened to one field during policy application.
type FieldResult struct {
	Name   string
	Status FieldStatus
	Err    error
}

// ApplyPolicy applies a field-policy table to the volume in place and returns
// a per-field report. Every input field resolves to exactly one action; rules
// naming absent fields produce FieldAbsent entries, and a rule that cannot be
// applied (e.g. non-numeric data) produces FieldFailed without aborting.
func ApplyPolicy(v *Volume, p Policy) []FieldResult {
	if p.Keep != nil {
		results := applyAllowList(v, p)
		stripAttrs(v, p.StripAttrs)
		return results
	}

	var results []FieldResult

	for _, name := range p.Drop {
		if _, ok := v.Fields[name]; !ok {
			results = append(results, FieldResult{Name: name, Status: FieldAbsent})
			continue
		}
		delete(v.Fields, name)
		results = append(results, FieldResult{Name: name, Status: FieldDropped})
	}

	for old, renamed := range p.Rename {
		f, ok := v.Fields[old]
		if !ok {
			results = append(results, FieldResult{Name: old, Status: FieldAbsent})
			continue
		}
		delete(v.Fields, old)
		v.Fields[renamed] = f
		results = append(results, FieldResult{Name: renamed, Status: FieldRenamed})
	}

	for name, rule := range p.Normalize {
		f, ok := v.Fields[name]
		if !ok {
			results = append(results, FieldResult{Name: name, Status: FieldAbsent})
			continue
		}
		if err := normalizeField(f, rule); err != nil {
			results = append(results, FieldResult{Name: name, Status: FieldFailed, Err: err})
			continue
		}
		results = append(results, FieldResult{Name: name, Status: FieldNormalized})
	}

	if p.ClearCalibration {
		v.Calibration = nil
	}

	stripAttrs(v, p.StripAttrs)
	return results
}

// applyAllowList retains only the listed variable names across the field,
// auxiliary, instrument-parameter, and calibration maps.
func applyAllowList(v *Volume, p Policy) []FieldResult {
	var results []FieldResult
	for _, m := range []map[string]*Field{v.Fields, v.Auxiliary, v.InstrumentParameters, v.Calibration} {
		for name := range m {
			if p.keeps(name) {
				results = append(results, FieldResult{Name: name, Status: FieldKept})
				continue
			}
			delete(m, name)
			results = append(results, FieldResult{Name: name, Status: FieldDropped})
		}
	}
	return results
}

// stripAttrs removes the known-bad attributes from every retained field,
// ignoring absence.
func stripAttrs(v *Volume, attrs []string) {
	for _, m := range []map[string]*Field{v.Fields, v.Auxiliary} {
		for _, f := range m {
			for _, a := range attrs {
				delete(f.Attrs, a)
			}
		}
	}
}

// normalizeField casts, re-masks, and re-tags one field in place. The
// operation is idempotent: the old fill sentinel (from the field's _FillValue
// attribute) and NaN samples both map to the declared fill, so a second
// application is a no-op.
func normalizeField(f *Field, rule NormalizeRule) error {
	for _, a := range rule.DropAttrs {
		delete(f.Attrs, a)
	}

	oldFill, hasOldFill := fillValueOf(f.Attrs)

	remap := func(x float64) float64 {
		if rule.FillValue == nil {
			return x
		}
		if math.IsNaN(x) || (hasOldFill && x == oldFill) {
			return *rule.FillValue
		}
		return x
	}

	switch rule.Type {
	case TypeFloat32:
		src, err := asFloat64s(f.Data)
		if err != nil {
			return err
		}
		out := make([]float32, len(src))
		for i, x := range src {
			out[i] = float32(remap(x))
		}
		f.Data = out
	case TypeInt32:
		src, err := asFloat64s(f.Data)
		if err != nil {
			return err
		}
		out := make([]int32, len(src))
		for i, x := range src {
			out[i] = int32(remap(x))
		}
		f.Data = out
	case TypeKeep:
		if rule.FillValue != nil {
			if err := remaskInPlace(f.Data, remap); err != nil {
				return err
			}
		}
	}

	if f.Attrs == nil {
		f.Attrs = Attributes{}
	}
	if rule.FillValue != nil {
		switch f.Data.(type) {
		case []int32:
			f.Attrs["_FillValue"] = int32(*rule.FillValue)
		case []float64:
			f.Attrs["_FillValue"] = *rule.FillValue
		default:
			f.Attrs["_FillValue"] = float32(*rule.FillValue)
		}
	}
	if rule.LeastDigit > 0 {
		f.Attrs["_Least_significant_digit"] = int32(rule.LeastDigit)
	}
	return nil
}

// fillValueOf reads the field's current fill sentinel from its attributes.
func fillValueOf(attrs Attributes) (float64, bool) {
	v, ok := attrs["_FillValue"]
	if !ok {
		return 0, false
	}
	x, err := toFloat64(v)
	if err != nil {
		return 0, false
	}
	return x, true
}

// asFloat64s widens any supported numeric array to float64 for remapping.
func asFloat64s(data any) ([]float64, error) {
	switch src := data.(type) {
	case []float64:
		return src, nil
	case []float32:
		out := make([]float64, len(src))
		for i, x := range src {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(src))
		for i, x := range src {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(src))
		for i, x := range src {
			out[i] = float64(x)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(src))
		for i, x := range src {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported array type %T", data)
	}
}

// remaskInPlace rewrites fill sentinels without changing the storage type.
func remaskInPlace(data any, remap func(float64) float64) error {
	switch src := data.(type) {
	case []float64:
		for i, x := range src {
			src[i] = remap(x)
		}
	case []float32:
		for i, x := range src {
			src[i] = float32(remap(float64(x)))
		}
	case []int32:
		for i, x := range src {
			src[i] = int32(remap(float64(x)))
		}
	case []int16:
		for i, x := range src {
			src[i] = int16(remap(float64(x)))
		}
	case []int8:
		for i, x := range src {
			src[i] = int8(remap(float64(x)))
		}
	default:
		return fmt.Errorf("unsupported array type %T", data)
	}
	return nil
}

// toFloat64 converts a scalar attribute value to float64.
func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int8:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("not a numeric scalar: %T", v)
	}
}

package netcdfio

import (
	"fmt"
	"reflect"
)

// flatten collapses an arbitrarily nested rectangular slice (as returned by
// the NetCDF library) into a flat slice of its base element type plus the
// original shape. Scalars and strings pass through with a nil shape.
func flatten(values any) (any, []int, error) {
	rv := reflect.ValueOf(values)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return values, nil, nil
	}

	var shape []int
	for v := rv; v.Kind() == reflect.Slice; {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}

	elem := rv.Type()
	for elem.Kind() == reflect.Slice {
		elem = elem.Elem()
	}

	if len(shape) == 1 {
		// Already flat.
		return values, shape, nil
	}

	total := 1
	for _, d := range shape {
		total *= d
	}
	flat := reflect.MakeSlice(reflect.SliceOf(elem), 0, total)
	flat = appendFlat(flat, rv)
	if flat.Len() != total {
		return nil, nil, fmt.Errorf("ragged array: got %d elements, shape implies %d", flat.Len(), total)
	}
	return flat.Interface(), shape, nil
}

func appendFlat(dst, src reflect.Value) reflect.Value {
	if src.Type().Elem().Kind() != reflect.Slice {
		return reflect.AppendSlice(dst, src)
	}
	for i := 0; i < src.Len(); i++ {
		dst = appendFlat(dst, src.Index(i))
	}
	return dst
}

// nest rebuilds the nested representation the NetCDF writer expects from a
// flat slice and its shape. Rank-0 and rank-1 values pass through.
func nest(flat any, shape []int) (any, error) {
	rv := reflect.ValueOf(flat)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || len(shape) <= 1 {
		return flat, nil
	}

	total := 1
	for _, d := range shape {
		total *= d
	}
	if total == 0 {
		return nil, fmt.Errorf("shape %v has an empty dimension", shape)
	}
	if rv.Len() != total {
		return nil, fmt.Errorf("shape %v implies %d elements, have %d", shape, total, rv.Len())
	}
	return nestValue(rv, shape).Interface(), nil
}

func nestValue(flat reflect.Value, shape []int) reflect.Value {
	if len(shape) <= 1 {
		return flat
	}
	sub := 1
	for _, d := range shape[1:] {
		sub *= d
	}
	first := nestValue(flat.Slice(0, sub), shape[1:])
	out := reflect.MakeSlice(reflect.SliceOf(first.Type()), 0, shape[0])
	out = reflect.Append(out, first)
	for i := 1; i < shape[0]; i++ {
		out = reflect.Append(out, nestValue(flat.Slice(i*sub, (i+1)*sub), shape[1:]))
	}
	return out
}

// Package netcdfio reads and writes CPOL radar volumes as CF/Radial NetCDF
// files using the go-native-netcdf library. It implements the pipeline's
// VolumeReader and VolumeWriter contracts.
package netcdfio

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/darwinradar/radar-volume-etl/internal/domain"
)

// instrumentParameters are the variable names belonging to the CF/Radial
// instrument_parameters sub-convention.
var instrumentParameters = map[string]bool{
	"frequency":                       true,
	"follow_mode":                     true,
	"pulse_width":                     true,
	"prt_mode":                        true,
	"prt":                             true,
	"prt_ratio":                       true,
	"polarization_mode":               true,
	"nyquist_velocity":                true,
	"unambiguous_range":               true,
	"n_samples":                       true,
	"sampling_ratio":                  true,
	"radar_antenna_gain_h":            true,
	"radar_antenna_gain_v":            true,
	"radar_beam_width_h":              true,
	"radar_beam_width_v":              true,
	"radar_receiver_bandwidth":        true,
	"radar_measured_transmit_power_h": true,
	"radar_measured_transmit_power_v": true,
}

// Store reads and writes volumes on the local filesystem.
type Store struct{}

// ReadVolume opens one CF/Radial file and loads it wholesale into memory.
// Variables are classified by shape and name: (time, range) arrays are moment
// fields, r_calib_* variables form the calibration substructure, known
// instrument-parameter names form theirs, and everything else (coordinates,
// sweep geometry, scalars) is auxiliary.
func (Store) ReadVolume(path string) (*domain.Volume, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	v := &domain.Volume{
		Fields:               map[string]*domain.Field{},
		Auxiliary:            map[string]*domain.Field{},
		InstrumentParameters: map[string]*domain.Field{},
		Calibration:          map[string]*domain.Field{},
		GlobalAttrs:          domain.Attributes{},
	}

	copyAttrs(v.GlobalAttrs, nc.Attributes())

	for _, name := range nc.ListVariables() {
		nv, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("read variable %s: %w", name, err)
		}
		flat, shape, err := flatten(nv.Values)
		if err != nil {
			return nil, fmt.Errorf("read variable %s: %w", name, err)
		}
		f := &domain.Field{
			Data:       flat,
			Shape:      shape,
			Dimensions: nv.Dimensions,
			Attrs:      domain.Attributes{},
		}
		copyAttrs(f.Attrs, nv.Attributes)

		switch {
		case strings.HasPrefix(name, "r_calib_"):
			v.Calibration[name] = f
		case instrumentParameters[name]:
			v.InstrumentParameters[name] = f
		case isMoment(f):
			v.Fields[name] = f
		default:
			v.Auxiliary[name] = f
		}
	}

	if err := setCoverageTimes(v); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// WriteVolume serializes a transformed volume back to NetCDF at path.
// Variables are written coordinates first so shared dimensions are defined
// before the moment fields that use them.
func (Store) WriteVolume(path string, v *domain.Volume) error {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	globals, err := orderedAttrs(v.GlobalAttrs)
	if err != nil {
		return closeWith(cw, err)
	}
	if err := cw.AddGlobalAttrs(globals); err != nil {
		return closeWith(cw, fmt.Errorf("global attributes: %w", err))
	}

	for _, m := range []map[string]*domain.Field{v.Auxiliary, v.Fields, v.InstrumentParameters, v.Calibration} {
		for _, name := range sortedKeys(m) {
			if err := addVar(cw, name, m[name]); err != nil {
				return closeWith(cw, fmt.Errorf("write variable %s: %w", name, err))
			}
		}
	}

	if err := cw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func addVar(cw *cdf.CDFWriter, name string, f *domain.Field) error {
	values, err := nest(f.Data, f.Shape)
	if err != nil {
		return err
	}
	attrs, err := orderedAttrs(f.Attrs)
	if err != nil {
		return err
	}
	return cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: f.Dimensions,
		Attributes: attrs,
	})
}

func closeWith(cw *cdf.CDFWriter, err error) error {
	cw.Close() //nolint:errcheck // already failing, best-effort release
	return err
}

// isMoment reports whether a variable is a (time, range) data field.
func isMoment(f *domain.Field) bool {
	return len(f.Dimensions) == 2 && f.Dimensions[0] == "time" && f.Dimensions[1] == "range"
}

// setCoverageTimes derives the scan start and end from the CF time coordinate.
func setCoverageTimes(v *domain.Volume) error {
	tf, ok := v.Auxiliary["time"]
	if !ok {
		return errors.New("missing time coordinate")
	}
	units := tf.Attrs.String("units")
	if units == "" {
		return errors.New("time coordinate has no units attribute")
	}
	base, scale, err := parseCFTimeUnits(units)
	if err != nil {
		return err
	}
	first, last, err := firstLast(tf.Data)
	if err != nil {
		return fmt.Errorf("time coordinate: %w", err)
	}
	v.StartTime = cfTimeAt(base, scale, first)
	v.EndTime = cfTimeAt(base, scale, last)
	return nil
}

func firstLast(data any) (float64, float64, error) {
	switch src := data.(type) {
	case []float64:
		if len(src) == 0 {
			return 0, 0, errors.New("empty")
		}
		return src[0], src[len(src)-1], nil
	case []float32:
		if len(src) == 0 {
			return 0, 0, errors.New("empty")
		}
		return float64(src[0]), float64(src[len(src)-1]), nil
	case []int32:
		if len(src) == 0 {
			return 0, 0, errors.New("empty")
		}
		return float64(src[0]), float64(src[len(src)-1]), nil
	case []int64:
		if len(src) == 0 {
			return 0, 0, errors.New("empty")
		}
		return float64(src[0]), float64(src[len(src)-1]), nil
	default:
		return 0, 0, fmt.Errorf("unsupported time array type %T", data)
	}
}

func copyAttrs(dst domain.Attributes, src api.AttributeMap) {
	if src == nil {
		return
	}
	for _, k := range src.Keys() {
		if val, has := src.Get(k); has {
			dst[k] = val
		}
	}
}

// orderedAttrs converts an attribute mapping to the library's ordered form,
// sorted by name for deterministic output.
func orderedAttrs(attrs domain.Attributes) (api.AttributeMap, error) {
	if len(attrs) == 0 {
		return util.NewOrderedMap([]string{}, map[string]any{})
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return util.NewOrderedMap(keys, map[string]any(attrs))
}

func sortedKeys(m map[string]*domain.Field) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

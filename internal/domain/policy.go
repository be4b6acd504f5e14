package domain

import "math"

// ArrayType is the storage type a normalize rule casts a field's array to.
type ArrayType int

const (
	// TypeKeep leaves the array's current storage type unchanged.
	TypeKeep ArrayType = iota
	// TypeFloat32 casts the array to 32-bit floating point.
	TypeFloat32
	// TypeInt32 casts the array to 32-bit signed integer.
	TypeInt32
)

// NormalizeRule declares the storage type, precision hint, and fill value for
// one field. A nil FillValue leaves the fill sentinel unchanged; a NaN
// FillValue masks invalid samples with NaN. LeastDigit 0 leaves the
// least-significant-digit hint untouched.
type NormalizeRule struct {
	Type       ArrayType
	LeastDigit int
	FillValue  *float64

	// DropAttrs are per-field attributes removed before normalizing,
	// e.g. the wrong standard_name carried by the NW field.
	DropAttrs []string
}

// Policy is a named field-policy table. It resolves every field of an input
// volume to exactly one of {dropped, renamed, normalized, passed through}.
//
// Two modes ship and stay distinct configurations: a revision policy
// (Keep nil) drops, renames, and normalizes listed fields and passes the
// rest through; an allow-list policy (Keep non-nil) retains only the listed
// variable names and drops everything else.
type Policy struct {
	Name string

	Drop      []string
	Rename    map[string]string
	Normalize map[string]NormalizeRule // keyed by post-rename name

	// Keep, when non-nil, switches the policy to allow-list mode.
	Keep []string

	// StripAttrs are removed from every retained field, ignoring absence.
	StripAttrs []string

	// CopyInstrumentParameters replaces the output's instrument-parameter
	// substructure with the one from the level-1a reference volume.
	CopyInstrumentParameters bool

	// ClearCalibration discards the deprecated calibration substructure.
	ClearCalibration bool
}

func nan() *float64 {
	v := math.NaN()
	return &v
}

func fill(v float64) *float64 { return &v }

// LevelB1Revision is the level-1b revision policy: strip obsolete derived
// fields, rename the reflectivity and the two velocity fields, normalize the
// curated moment list to float32 with NaN fill, force the echo classification
// to int32 with a -9999 sentinel, and refresh the instrument parameters from
// the level-1a companion volume.
func LevelB1Revision() Policy {
	return Policy{
		Name: "b1-revision",
		Drop: []string{
			"temperature",
			"specific_attenuation_reflectivity",
			"specific_attenuation_differential_reflectivity",
			"velocity_texture",
		},
		Rename: map[string]string{
			"reflectivity":            "corrected_reflectivity",
			"raw_velocity":            "velocity",
			"region_dealias_velocity": "corrected_velocity",
		},
		Normalize: map[string]NormalizeRule{
			"radar_echo_classification": {Type: TypeInt32, FillValue: fill(-9999)},
			"radar_estimated_rain_rate": {LeastDigit: 2},
			"NW":                        {LeastDigit: 2, FillValue: nan(), DropAttrs: []string{"standard_name"}},

			"D0":                                    {Type: TypeFloat32, LeastDigit: 2, FillValue: nan()},
			"velocity":                              {Type: TypeFloat32, LeastDigit: 2, FillValue: nan()},
			"total_power":                           {Type: TypeFloat32, LeastDigit: 2, FillValue: nan()},
			"corrected_reflectivity":                {Type: TypeFloat32, LeastDigit: 2, FillValue: nan()},
			"cross_correlation_ratio":               {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"corrected_differential_reflectivity":   {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"corrected_differential_phase":          {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"corrected_specific_differential_phase": {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"differential_reflectivity":             {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"differential_phase":                    {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"spectrum_width":                        {Type: TypeFloat32, LeastDigit: 4, FillValue: nan()},
			"signal_to_noise_ratio":                 {Type: TypeFloat32, LeastDigit: 2, FillValue: nan()},
			"corrected_velocity":                    {Type: TypeFloat32, LeastDigit: 2, FillValue: nan()},
		},
		StripAttrs:               []string{"grid_mapping", "coordinates", "sampling_ratio"},
		CopyInstrumentParameters: true,
		ClearCalibration:         true,
	}
}

// ArchiveRefresh is the v2018 archive refresh policy: keep only the explicit
// allow-list of data fields and coordinate variables, drop everything else,
// and replace the global attributes with the CF-1.6/ACDD-1.3 template.
func ArchiveRefresh() Policy {
	return Policy{
		Name: "v2018-refresh",
		Keep: []string{
			"time",
			"range",
			"azimuth",
			"elevation",
			"radar_echo_classification",
			"radar_estimated_rain_rate",
			"velocity",
			"total_power",
			"reflectivity",
			"cross_correlation_ratio",
			"differential_reflectivity",
			"corrected_differential_reflectivity",
			"differential_phase",
			"corrected_differential_phase",
			"corrected_specific_differential_phase",
			"spectrum_width",
			"signal_to_noise_ratio",
			"sweep_number",
			"fixed_angle",
			"sweep_start_ray_index",
			"sweep_end_ray_index",
			"sweep_mode",
			"prt_mode",
			"prt",
			"nyquist_velocity",
			"unambiguous_range",
			"radar_beam_width_h",
			"radar_beam_width_v",
			"latitude",
			"longitude",
			"altitude",
			"time_coverage_start",
			"time_coverage_end",
			"time_reference",
			"volume_number",
			"platform_type",
			"instrument_type",
			"primary_axis",
		},
		StripAttrs: []string{"grid_mapping", "coordinates", "sampling_ratio"},
	}
}

func (p Policy) keeps(name string) bool {
	for _, k := range p.Keep {
		if k == name {
			return true
		}
	}
	return false
}

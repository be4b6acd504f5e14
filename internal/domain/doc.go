// Package domain models CPOL weather-radar volume scans and the field-policy
// tables that rewrite them from one processing level to another.
//
// # Data Source
//
// CPOL is a C-band dual-polarization Doppler radar at Gunn Point, NT
// (Darwin, Australia). Each input file is one PPI volume scan in CF/Radial
// NetCDF: a time coordinate, per-ray geometry, a set of named moment fields
// (time x range arrays with per-field attributes such as _FillValue and
// units), an optional instrument-parameter substructure, and free-form
// global attributes.
//
// # Field Policies
//
// A [Policy] is a static table resolving every field of a volume to exactly
// one of {dropped, renamed, normalized, passed through}. Two policies ship
// and are deliberately kept as distinct configurations:
//
//	LevelB1Revision  drops obsolete derived fields (temperature, attenuation
//	                 products, velocity texture), renames reflectivity and
//	                 the two velocity fields, normalizes the curated moment
//	                 list to float32 with a NaN fill and a declared
//	                 least-significant-digit, forces the echo classification
//	                 to int32 with a -9999 sentinel, and refreshes the
//	                 instrument parameters from the level-1a companion file.
//	                 Fields the table does not name pass through unchanged.
//
//	ArchiveRefresh   keeps only an explicit allow-list of data fields and
//	                 coordinate variables; everything else is dropped.
//
// Both policies strip the wrongful grid_mapping, coordinates, and
// sampling_ratio attributes from every retained field.
//
// # Fill Values and Masking
//
// Arrays carry their invalid-sample sentinel in the _FillValue attribute.
// Normalization remaps the old sentinel (and NaN) to the declared fill, so
// applying a rule twice yields the same array. Floating-point moments use
// NaN; the integer echo classification uses -9999.
//
// # Output Naming
//
// Output paths are a pure function of the scan start timestamp, truncated to
// the minute, and a fixed [Naming] template:
//
//	<root>/<year>/<YYYYMMDD>/<site>.<level>.<YYYYMMDD>.<HHMM>00.nc
//
// # Global Metadata
//
// The transformer replaces a volume's global attributes wholesale with a
// template: [B1Attributes] (CF/Radial) for the revision product, or
// [ArchiveAttributes] (CF-1.6, ACDD-1.3) for the archive refresh. Derived
// values (a fresh UUID, the current wall-clock time, the geospatial POLYGON
// string at 6 significant digits, and coverage start/end) are generated per
// call; the product version and creation timestamp are carried over from the
// upstream attributes when present.
package domain

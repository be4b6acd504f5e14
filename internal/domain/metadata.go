package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SiteBounds is the fixed geospatial extent of a radar site.
type SiteBounds struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// GunnPointBounds covers the CPOL coverage area around Gunn Point, NT.
var GunnPointBounds = SiteBounds{
	MinLon: 129.703, MaxLon: 132.385,
	MinLat: -13.552, MaxLat: -10.941,
}

// Polygon formats the bounds as a WKT POLYGON ring with 6 significant digits.
func (b SiteBounds) Polygon() string {
	g := func(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }
	return fmt.Sprintf("POLYGON((%s %s,%s %s,%s %s,%s %s,%s %s))",
		g(b.MinLon), g(b.MinLat),
		g(b.MinLon), g(b.MaxLat),
		g(b.MaxLon), g(b.MaxLat),
		g(b.MaxLon), g(b.MinLat),
		g(b.MinLon), g(b.MinLat),
	)
}

// archiveFieldNames is the moment list advertised in the field_names
// attribute of the archive refresh product.
var archiveFieldNames = []string{
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
}

// B1Attributes builds the replacement global attributes for the level-1b
// revision product (CF/Radial conventions). Constants come from the CPOL
// product definition; the uuid and history timestamp are derived per call.
func B1Attributes(*Volume) Attributes {
	now := clock.Now().UTC()
	return Attributes{
		"Conventions":          "CF/Radial instrument_parameters",
		"acknowledgement":      acknowledgement,
		"country":              "Australia",
		"creator_email":        "cpol-support@bom.gov.au",
		"creator_name":         "CPOL processing team",
		"geospatial_bounds":    "(129.703, 132.385, -13.552, -10.941)",
		"geospatial_lat_max":   "-10.941",
		"geospatial_lat_min":   "-13.552",
		"geospatial_lat_units": "degrees_north",
		"geospatial_lon_max":   "132.385",
		"geospatial_lon_min":   "129.703",
		"geospatial_lon_units": "degrees_east",
		"history":              "created by the CPOL processing pipeline at " + now.Format(time.RFC3339) + " using radar-volume-etl",
		"institution":          "Monash University and Australian Bureau of Meteorology",
		"instrument_name":      "CPOL",
		"instrument_type":      "radar",
		"naming_authority":     "au.org.nci",
		"origin_altitude":      "50",
		"origin_latitude":      "-12.2488",
		"origin_longitude":     "131.0444",
		"platform_is_mobile":   "false",
		"processing_level":     "b1",
		"publisher_name":       "NCI",
		"publisher_url":        "nci.gov.au",
		"references":           "cf. doi:10.1175/JTECH-D-18-0007.1",
		"site_name":            "Gunn_Pt",
		"source":               "rapic",
		"state":                "NT",
		"title":                "radar PPI volume from CPOL",
		"uuid":                 uuid.New().String(),
		"version":              "1.3",
	}
}

// ArchiveAttributes builds the replacement global attributes for the v2018
// archive refresh product (CF-1.6 and ACDD-1.3 conventions). Coverage times
// come from the volume; the product version and creation timestamp are
// carried over from the upstream attributes when present. Both date_created
// and history are plain strings.
func ArchiveAttributes(v *Volume) Attributes {
	id := uuid.New().String()
	b := GunnPointBounds
	g := func(x float64) string { return strconv.FormatFloat(x, 'g', 6, 64) }

	attrs := Attributes{
		"Conventions":              "CF-1.6, ACDD-1.3",
		"acknowledgement":          acknowledgement,
		"country":                  "Australia",
		"creator_email":            "cpol-support@bom.gov.au",
		"creator_name":             "CPOL processing team",
		"creator_url":              "github.com/darwinradar",
		"date_modified":            clock.Now().UTC().Format(time.RFC3339),
		"field_names":              strings.Join(archiveFieldNames, ", "),
		"geospatial_bounds":        b.Polygon(),
		"geospatial_lat_max":       g(b.MaxLat),
		"geospatial_lat_min":       g(b.MinLat),
		"geospatial_lat_units":     "degrees_north",
		"geospatial_lon_max":       g(b.MaxLon),
		"geospatial_lon_min":       g(b.MinLon),
		"geospatial_lon_units":     "degrees_east",
		"id":                       id,
		"institution":              "Bureau of Meteorology",
		"instrument":               "radar",
		"instrument_name":          "CPOL",
		"instrument_type":          "radar",
		"keywords":                 "radar, tropics, Doppler, dual-polarization",
		"licence":                  "Freely Distributed",
		"naming_authority":         "au.org.nci",
		"origin_altitude":          "50",
		"origin_latitude":          "-12.2491",
		"origin_longitude":         "131.0444",
		"platform_is_mobile":       "false",
		"processing_level":         "b1",
		"project":                  "CPOL",
		"publisher_name":           "NCI",
		"publisher_url":            "nci.gov.au",
		"references":               "doi:10.1175/JTECH-D-18-0007.1",
		"site_name":                "Gunn Pt",
		"source":                   "radar",
		"state":                    "NT",
		"standard_name_vocabulary": "CF Standard Name Table v71",
		"summary":                  "Volumetric scan from CPOL dual-polarization Doppler radar (Darwin, Australia)",
		"time_coverage_start":      v.StartTime.UTC().Format(time.RFC3339),
		"time_coverage_end":        v.EndTime.UTC().Format(time.RFC3339),
		"time_coverage_duration":   "P10M",
		"time_coverage_resolution": "PT10M",
		"title":                    "radar PPI volume from CPOL",
		"uuid":                     id,
	}

	if pv := v.GlobalAttrs.String("product_version"); pv != "" {
		attrs["product_version"] = "v" + pv
		attrs["version"] = "v" + pv
	}
	if created := v.GlobalAttrs.String("created"); created != "" {
		attrs["date_created"] = created
		attrs["history"] = "created by the CPOL processing pipeline at " + created + " using radar-volume-etl"
	}

	return attrs
}

const acknowledgement = "This work has been supported by the U.S. Department of Energy Atmospheric Systems Research Program through the grant DE-SC0014063. Data may be freely distributed."

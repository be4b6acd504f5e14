package domain_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/darwinradar/radar-volume-etl/internal/domain"
)

func TestNamingFilename(t *testing.T) {
	n := domain.Naming{Site: "twp10cpolppi", Level: "b1"}

	tests := []struct {
		name  string
		start time.Time
		want  string
	}{
		{
			name:  "utc start",
			start: time.Date(2017, 3, 4, 0, 10, 0, 0, time.UTC),
			want:  "twp10cpolppi.b1.20170304.001000.nc",
		},
		{
			name:  "seconds truncated to the minute",
			start: time.Date(2017, 3, 4, 23, 59, 42, 0, time.UTC),
			want:  "twp10cpolppi.b1.20170304.235900.nc",
		},
		{
			name:  "non-utc start normalized",
			start: time.Date(2017, 3, 4, 9, 30, 0, 0, time.FixedZone("ACST", 9*3600+1800)),
			want:  "twp10cpolppi.b1.20170304.000000.nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Filename(tt.start))
		})
	}
}

func TestNamingOutputPathIsDeterministic(t *testing.T) {
	n := domain.Naming{Site: "twp10cpolppi", Level: "b1"}
	start := time.Date(1998, 12, 6, 0, 10, 0, 0, time.UTC)

	got := n.OutputPath("/out", start)
	want := filepath.Join("/out", "1998", "19981206", "twp10cpolppi.b1.19981206.001000.nc")

	assert.Equal(t, want, got)
	assert.Equal(t, got, n.OutputPath("/out", start), "same start yields same path")
}

func TestFieldSize(t *testing.T) {
	assert.Equal(t, 1, (&domain.Field{}).Size())
	assert.Equal(t, 6, (&domain.Field{Shape: []int{2, 3}}).Size())
	assert.Equal(t, 0, (&domain.Field{Shape: []int{2, 0}}).Size())
}

func TestAttributesClone(t *testing.T) {
	a := domain.Attributes{"source": "rapic", "version": int32(2)}
	b := a.Clone()
	b["source"] = "other"

	assert.Equal(t, "rapic", a.String("source"))
	assert.Equal(t, "other", b.String("source"))
	assert.Equal(t, "", a.String("version"), "non-string values read as empty")
	assert.Equal(t, "", a.String("missing"))
}

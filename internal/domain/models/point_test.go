package models

import "testing"

func TestPointFields_MatchSchema(t *testing.T) {
	fields := Point{}.Fields()

	if len(fields) != len(GPSSchema.Fields) {
		t.Fatalf("point has %d fields, schema declares %d", len(fields), len(GPSSchema.Fields))
	}
	for name := range fields {
		if _, ok := GPSSchema.FieldType(name); !ok {
			t.Errorf("field %q is not declared in GPSSchema", name)
		}
	}
	for name := range (Point{}).Tags() {
		if !GPSSchema.HasTag(name) {
			t.Errorf("tag %q is not declared in GPSSchema", name)
		}
	}
}

func TestPointFields_SatellitesAreInteger(t *testing.T) {
	v := Point{NumberOfSatellites: 8}.Fields()[FieldNumberOfSatellites]
	if _, ok := v.(int64); !ok {
		t.Fatalf("numberOfSatellites is %T, want int64", v)
	}
}

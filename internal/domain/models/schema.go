package models

import "github.com/Mark48Evo/gps-influxdb/internal/domain/types"

// FieldSchema is one declared field of a measurement.
type FieldSchema struct {
	Name string
	Type types.FieldType
}

// Schema declares the fields and tags of a measurement. Field order is
// stable so it can drive table DDL.
type Schema struct {
	Measurement string
	Fields      []FieldSchema
	Tags        []string
}

// FieldType returns the declared type of name.
func (s Schema) FieldType(name string) (types.FieldType, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return 0, false
}

// HasTag reports whether name is a declared tag.
func (s Schema) HasTag(name string) bool {
	for _, t := range s.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// GPSSchema is the declared layout of the gps measurement.
var GPSSchema = Schema{
	Measurement: MeasurementGPS,
	Fields: []FieldSchema{
		{FieldNumberOfSatellites, types.FieldInteger},
		{FieldLatitude, types.FieldFloat},
		{FieldLongitude, types.FieldFloat},
		{FieldHeightEllipsoid, types.FieldFloat},
		{FieldHeightSeaLevel, types.FieldFloat},
		{FieldSpeed, types.FieldFloat},
		{FieldVelocityNorth, types.FieldFloat},
		{FieldVelocityEast, types.FieldFloat},
		{FieldVelocityDown, types.FieldFloat},
		{FieldHeadingOfMotion, types.FieldFloat},
		{FieldSpeedAccuracy, types.FieldFloat},
		{FieldHeadingAccuracy, types.FieldFloat},
		{FieldHorizontalAccuracy, types.FieldFloat},
		{FieldVerticalAccuracy, types.FieldFloat},
	},
	Tags: []string{TagFixType},
}

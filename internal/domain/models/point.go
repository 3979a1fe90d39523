package models

import "time"

// MeasurementGPS is the measurement every converted fix is stored under.
const MeasurementGPS = "gps"

// Tag and field names of the gps measurement.
const (
	TagFixType = "fixType"

	FieldNumberOfSatellites = "numberOfSatellites"
	FieldLatitude           = "latitude"
	FieldLongitude          = "longitude"
	FieldHeightEllipsoid    = "heightEllipsoid"
	FieldHeightSeaLevel     = "heightSeaLevel"
	FieldSpeed              = "speed"
	FieldVelocityNorth      = "velocityNorth"
	FieldVelocityEast       = "velocityEast"
	FieldVelocityDown       = "velocityDown"
	FieldHeadingOfMotion    = "headingOfMotion"
	FieldSpeedAccuracy      = "speedAccuracy"
	FieldHeadingAccuracy    = "headingAccuracy"
	FieldHorizontalAccuracy = "horizontalAccuracy"
	FieldVerticalAccuracy   = "verticalAccuracy"
)

// Point is a fix in canonical units, ready for the time-series store.
type Point struct {
	FixType string

	NumberOfSatellites int64
	Latitude           float64 // deg
	Longitude          float64 // deg
	HeightEllipsoid    float64 // m
	HeightSeaLevel     float64 // m
	Speed              float64 // km/h
	VelocityNorth      float64 // km/h
	VelocityEast       float64 // km/h
	VelocityDown       float64 // km/h
	HeadingOfMotion    float64 // deg
	SpeedAccuracy      float64 // km/h
	HeadingAccuracy    float64 // deg
	HorizontalAccuracy float64 // m
	VerticalAccuracy   float64 // m

	Time time.Time // UTC
}

// Tags returns the point's tag set.
func (p Point) Tags() map[string]string {
	return map[string]string{
		TagFixType: p.FixType,
	}
}

// Fields returns the point's field set keyed by field name.
func (p Point) Fields() map[string]any {
	return map[string]any{
		FieldNumberOfSatellites: p.NumberOfSatellites,
		FieldLatitude:           p.Latitude,
		FieldLongitude:          p.Longitude,
		FieldHeightEllipsoid:    p.HeightEllipsoid,
		FieldHeightSeaLevel:     p.HeightSeaLevel,
		FieldSpeed:              p.Speed,
		FieldVelocityNorth:      p.VelocityNorth,
		FieldVelocityEast:       p.VelocityEast,
		FieldVelocityDown:       p.VelocityDown,
		FieldHeadingOfMotion:    p.HeadingOfMotion,
		FieldSpeedAccuracy:      p.SpeedAccuracy,
		FieldHeadingAccuracy:    p.HeadingAccuracy,
		FieldHorizontalAccuracy: p.HorizontalAccuracy,
		FieldVerticalAccuracy:   p.VerticalAccuracy,
	}
}

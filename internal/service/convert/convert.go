// Package convert maps raw nav.pvt fixes to canonical gps points.
package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
)

const (
	// mm -> m
	millimetersPerMeter = 1000
	// mm/s -> km/h
	mmPerSecToKmPerHour = 0.0036
)

// ToPoint converts one raw fix into a canonical point. It is pure: the same
// fix always yields the same point. A fix missing any required value is
// rejected with types.ErrMalformedRecord and no point.
func ToPoint(fix models.NavPVT) (models.Point, error) {
	if missing := Validate(fix); len(missing) > 0 {
		return models.Point{}, fmt.Errorf("%w: missing %s", types.ErrMalformedRecord, strings.Join(missing, ", "))
	}

	return models.Point{
		FixType: fix.FixType.String,

		NumberOfSatellites: *fix.NumSV,
		Latitude:           *fix.Lat,
		Longitude:          *fix.Lon,
		HeightEllipsoid:    millimeters(*fix.Height),
		HeightSeaLevel:     millimeters(*fix.HMSL),
		Speed:              kmPerHour(*fix.GSpeed),
		VelocityNorth:      kmPerHour(*fix.VelN),
		VelocityEast:       kmPerHour(*fix.VelE),
		VelocityDown:       kmPerHour(*fix.VelD),
		HeadingOfMotion:    *fix.HeadMot,
		SpeedAccuracy:      kmPerHour(*fix.SAcc),
		HeadingAccuracy:    *fix.HeadAcc,
		HorizontalAccuracy: millimeters(*fix.HAcc),
		VerticalAccuracy:   millimeters(*fix.VAcc),

		Time: Timestamp(*fix.Year, *fix.Month, *fix.Day, *fix.Hour, *fix.Minute, *fix.Second),
	}, nil
}

// Validate returns the JSON names of the required values absent from fix.
func Validate(fix models.NavPVT) []string {
	var missing []string
	check := func(ok bool, name string) {
		if !ok {
			missing = append(missing, name)
		}
	}

	check(fix.NumSV != nil, "numSV")
	check(fix.Lat != nil, "lat")
	check(fix.Lon != nil, "lon")
	check(fix.Height != nil, "height")
	check(fix.HMSL != nil, "hMSL")
	check(fix.GSpeed != nil, "gSpeed")
	check(fix.VelN != nil, "velN")
	check(fix.VelE != nil, "velE")
	check(fix.VelD != nil, "velD")
	check(fix.HeadMot != nil, "headMot")
	check(fix.SAcc != nil, "sAcc")
	check(fix.HeadAcc != nil, "headAcc")
	check(fix.HAcc != nil, "hAcc")
	check(fix.VAcc != nil, "vAcc")
	check(fix.FixType != nil && fix.FixType.String != "", "fixType.string")
	check(fix.Year != nil, "year")
	check(fix.Month != nil, "month")
	check(fix.Day != nil, "day")
	check(fix.Hour != nil, "hour")
	check(fix.Minute != nil, "minute")
	check(fix.Second != nil, "second")

	return missing
}

// Timestamp composes the calendar components as a UTC instant. Components
// are not range checked; out of range values normalize as time.Date does.
func Timestamp(year, month, day, hour, minute, second int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

func millimeters(v int64) float64 {
	return float64(v) / millimetersPerMeter
}

func kmPerHour(v int64) float64 {
	return float64(v) * mmPerSecToKmPerHour
}

package models

import (
	"encoding/json"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
)

// Event is the message the GPS decoder publishes for every decoded frame.
type Event struct {
	Type types.EventKind `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FixType is the decoder's fix classification with its printable label.
type FixType struct {
	Value  *int64 `json:"value"`
	String string `json:"string"`
}

// NavPVT is one navigation solution in raw device units. Fields are pointers
// so that a missing key can be told apart from a zero reading.
type NavPVT struct {
	NumSV *int64 `json:"numSV"`

	Lat *float64 `json:"lat"` // deg
	Lon *float64 `json:"lon"` // deg

	Height *int64 `json:"height"` // mm above ellipsoid
	HMSL   *int64 `json:"hMSL"`   // mm above mean sea level

	GSpeed *int64 `json:"gSpeed"` // mm/s
	VelN   *int64 `json:"velN"`   // mm/s
	VelE   *int64 `json:"velE"`   // mm/s
	VelD   *int64 `json:"velD"`   // mm/s

	HeadMot *float64 `json:"headMot"` // deg

	SAcc    *int64   `json:"sAcc"`    // mm/s
	HeadAcc *float64 `json:"headAcc"` // deg
	HAcc    *int64   `json:"hAcc"`    // mm
	VAcc    *int64   `json:"vAcc"`    // mm

	FixType *FixType `json:"fixType"`

	Year   *int `json:"year"`
	Month  *int `json:"month"`
	Day    *int `json:"day"`
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
	Second *int `json:"second"`
}

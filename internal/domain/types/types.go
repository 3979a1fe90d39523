package types

// StoreDriver selects the time-series store backend.
type StoreDriver string

const (
	StoreInfluxDB StoreDriver = "influxdb"
	StorePostgres StoreDriver = "postgres"
)

// EventKind is the decoder event name, also used as the AMQP routing key.
type EventKind string

// EventNavPVT is the navigation position-velocity-time solution.
const EventNavPVT EventKind = "nav.pvt"

// FieldType is the declared type of a measurement field.
type FieldType int

const (
	FieldFloat FieldType = iota
	FieldInteger
	FieldString
	FieldBoolean
)

func (t FieldType) String() string {
	switch t {
	case FieldFloat:
		return "float"
	case FieldInteger:
		return "integer"
	case FieldString:
		return "string"
	case FieldBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

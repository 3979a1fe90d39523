package influx

import (
	"fmt"
	"strings"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
)

// coerce checks tags and fields against the schema and converts field values
// to their declared types, so numberOfSatellites is always sent as an
// integer and everything else as a float.
func coerce(schema models.Schema, tags map[string]string, fields map[string]any) (map[string]string, map[string]any, error) {
	for name := range tags {
		if !schema.HasTag(name) {
			return nil, nil, fmt.Errorf("%w: %s.%s", types.ErrUndeclaredTag, schema.Measurement, name)
		}
	}

	out := make(map[string]any, len(fields))
	for name, v := range fields {
		ft, ok := schema.FieldType(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s.%s", types.ErrUndeclaredField, schema.Measurement, name)
		}

		cv, err := convertField(ft, v)
		if err != nil {
			return nil, nil, fmt.Errorf("field %s: %w", name, err)
		}
		out[name] = cv
	}

	return tags, out, nil
}

func convertField(ft types.FieldType, v any) (any, error) {
	switch ft {
	case types.FieldInteger:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case float64:
			return int64(n), nil
		}
	case types.FieldFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		}
	case types.FieldString:
		return fmt.Sprint(v), nil
	case types.FieldBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot store %T as %s", v, ft)
}

// quoteIdent quotes an InfluxQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(name, `\`, `\\`), `"`, `\"`) + `"`
}

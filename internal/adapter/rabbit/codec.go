package rabbit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/models"
	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
)

const (
	contentTypeJSON = "application/json"
	contentTypeCBOR = "application/cbor"

	encodingGzip = "gzip"
	encodingZstd = "zstd"
)

var (
	ErrUnsupportedContentType     = errors.New("unsupported content type")
	ErrUnsupportedContentEncoding = errors.New("unsupported content encoding")
)

var (
	cborDecMode  cbor.DecMode
	zstdDecoder  *zstd.Decoder
	maxBodyBytes int64 = 1 << 20
)

func init() {
	var err error

	// struct fields fall back to their json tags, so NavPVT decodes from
	// CBOR without a second set of tags
	cborDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("rabbit: CBOR decoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxBodyBytes)))
	if err != nil {
		panic("rabbit: zstd decoder initialization failed: " + err.Error())
	}
}

// cborEvent is the CBOR shape of models.Event.
type cborEvent struct {
	Type types.EventKind `cbor:"type"`
	Data cbor.RawMessage `cbor:"data"`
}

// payload is a decoded envelope whose data is still in wire form.
type payload struct {
	kind      types.EventKind
	data      []byte
	unmarshal func([]byte, any) error
}

// decodeFix decodes the envelope data into a fix.
func (p payload) decodeFix() (models.NavPVT, error) {
	var fix models.NavPVT
	if len(p.data) == 0 {
		return fix, errors.New("empty data")
	}
	err := p.unmarshal(p.data, &fix)
	return fix, err
}

// decodePayload undoes the content encoding and decodes the envelope
// according to the content type. An empty content type means JSON.
func decodePayload(msg amqp.Delivery) (payload, error) {
	body, err := decompress(msg.ContentEncoding, msg.Body)
	if err != nil {
		return payload{}, err
	}

	contentType, _, _ := strings.Cut(msg.ContentType, ";")

	switch strings.TrimSpace(contentType) {
	case "", contentTypeJSON:
		var event models.Event
		if err := json.Unmarshal(body, &event); err != nil {
			return payload{}, fmt.Errorf("decode json envelope: %w", err)
		}
		return payload{kind: event.Type, data: event.Data, unmarshal: json.Unmarshal}, nil

	case contentTypeCBOR:
		var event cborEvent
		if err := cborDecMode.Unmarshal(body, &event); err != nil {
			return payload{}, fmt.Errorf("decode cbor envelope: %w", err)
		}
		return payload{kind: event.Type, data: event.Data, unmarshal: cborDecMode.Unmarshal}, nil

	default:
		return payload{}, fmt.Errorf("%w: %q", ErrUnsupportedContentType, msg.ContentType)
	}
}

func decompress(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil

	case encodingGzip:
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()

		out, err := io.ReadAll(io.LimitReader(r, maxBodyBytes+1))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if int64(len(out)) > maxBodyBytes {
			return nil, fmt.Errorf("gzip: body exceeds %d bytes", maxBodyBytes)
		}
		return out, nil

	case encodingZstd:
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentEncoding, encoding)
	}
}

package schema_registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkedin/goavro/v2"
)

// RecordSerializer encodes Avro records in the Confluent wire format and decodes them
// back with the writer schema named by the embedded id.
type RecordSerializer struct {
	registry *CachedRegistry

	registerMissingSchemas  bool
	registerMissingSubjects bool
}

// NewRecordSerializer creates a serializer over registry. The auto-registration
// switches are taken from config and both default to off.
func NewRecordSerializer(registry *CachedRegistry, config Config) (*RecordSerializer, error) {
	if registry == nil {
		return nil, fmt.Errorf("schema registry is required")
	}
	return &RecordSerializer{
		registry:                registry,
		registerMissingSchemas:  config.RegisterMissingSchemas,
		registerMissingSubjects: config.RegisterMissingSubjects,
	}, nil
}

// Encode validates native against codec and returns the header-prefixed binary.
// The schema id is resolved for subject, registering the schema when allowed.
func (s *RecordSerializer) Encode(ctx context.Context, subject string, codec *goavro.Codec, native interface{}) ([]byte, error) {
	if codec == nil {
		return nil, fmt.Errorf("%w: no schema for subject %s", ErrSerialization, subject)
	}

	id, err := s.schemaID(ctx, subject, codec)
	if err != nil {
		return nil, err
	}

	out, err := codec.BinaryFromNative(EncodeSchemaID(id), native)
	if err != nil {
		return nil, fmt.Errorf("%w: encode record for %s: %v", ErrSerialization, subject, err)
	}
	return out, nil
}

// Decode reads the wire header, resolves the writer schema and decodes the record.
func (s *RecordSerializer) Decode(ctx context.Context, data []byte) (interface{}, *goavro.Codec, error) {
	id, payload, err := DecodeSchemaID(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	codec, err := s.registry.SchemaByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	native, rest, err := codec.NativeFromBinary(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode record with schema %d: %v", ErrSerialization, id, err)
	}
	if len(rest) > 0 {
		return nil, nil, fmt.Errorf("%w: %d trailing bytes after record with schema %d", ErrSerialization, len(rest), id)
	}
	return native, codec, nil
}

func (s *RecordSerializer) schemaID(ctx context.Context, subject string, codec *goavro.Codec) (int, error) {
	id, err := s.registry.SchemaID(ctx, subject, codec)
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, ErrSubjectNotFound) && s.registerMissingSubjects:
		return s.registry.Register(ctx, subject, codec)
	case errors.Is(err, ErrSchemaNotFound) && s.registerMissingSchemas:
		return s.registry.Register(ctx, subject, codec)
	}
	return 0, err
}

// Package schema_registry provides integration with Confluent Schema Registry.
//
// It contains the HTTP Client, a CachedRegistry that memoizes lookups along three
// axes (schema id, subject and version, schema hash) and a RecordSerializer that
// writes and reads Avro records in the Confluent wire format:
//
//	[0x0][4 byte big-endian schema id][avro binary]
//
// # Direct Usage (Without FX)
//
//	client, err := schema_registry.NewClient(schema_registry.Config{
//	    URL: "http://localhost:8081",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cache := schemacache.NewCacheAdapter(schemacache.NewMemoryStore(), schemacache.Config{})
//	registry := schema_registry.NewCachedRegistry(client, cache)
//
//	serializer, err := schema_registry.NewRecordSerializer(registry, schema_registry.Config{
//	    RegisterMissingSubjects: true,
//	})
//
//	codec, _ := goavro.NewCodec(userSchema)
//	data, err := serializer.Encode(ctx, "users-value", codec, map[string]interface{}{"name": "Ada"})
//	native, writer, err := serializer.Decode(ctx, data)
//
// # Errors
//
// Registry error codes are mapped onto ErrSubjectNotFound (40401),
// ErrVersionNotFound (40402) and ErrSchemaNotFound (40403). Every failure to
// encode or decode a record wraps ErrSerialization.
package schema_registry

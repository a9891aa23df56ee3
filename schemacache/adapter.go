package schemacache

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// ErrMalformedSchema is returned when a cached value cannot be parsed back.
var ErrMalformedSchema = errors.New("malformed cached schema")

const (
	kindID             = "id"
	kindSubjectVersion = "subject_version"
	kindHash           = "hash"
)

// Logger is an interface that matches the logger.Logger interface.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// CacheAdapter memoizes schema registry lookups in a Store along three axes:
// schema id to schema, subject and version to schema, and schema hash to schema id.
//
// Entries are written once. A second write for the same key leaves the first value in place.
type CacheAdapter struct {
	store    Store
	identity string

	observer observability.Observer
	logger   Logger
}

// NewCacheAdapter creates an adapter over store.
func NewCacheAdapter(store Store, cfg Config) *CacheAdapter {
	if cfg.Identity == "" {
		cfg.Identity = DefaultIdentity
	}
	return &CacheAdapter{store: store, identity: cfg.Identity}
}

// CacheSchemaWithID stores the schema of codec under its registry id.
func (a *CacheAdapter) CacheSchemaWithID(ctx context.Context, codec *goavro.Codec, id int) error {
	if codec == nil {
		return fmt.Errorf("%w: no schema for id %d", ErrMalformedSchema, id)
	}
	return a.add(ctx, "cache_schema_with_id", kindID, strconv.Itoa(id), codec.Schema())
}

// CacheSchemaWithSubjectAndVersion stores the schema of codec under subject and version.
func (a *CacheAdapter) CacheSchemaWithSubjectAndVersion(ctx context.Context, codec *goavro.Codec, subject string, version int) error {
	if codec == nil {
		return fmt.Errorf("%w: no schema for %s", ErrMalformedSchema, subjectVersion(subject, version))
	}
	return a.add(ctx, "cache_schema_with_subject_and_version", kindSubjectVersion, subjectVersion(subject, version), codec.Schema())
}

// CacheSchemaIDByHash stores the registry id of the schema whose hash is given.
func (a *CacheAdapter) CacheSchemaIDByHash(ctx context.Context, id int, hash string) error {
	return a.add(ctx, "cache_schema_id_by_hash", kindHash, hash, strconv.Itoa(id))
}

// GetWithID returns the cached schema for id, or nil when there is none.
func (a *CacheAdapter) GetWithID(ctx context.Context, id int) (*goavro.Codec, error) {
	return a.getCodec(ctx, "get_with_id", kindID, strconv.Itoa(id))
}

// GetWithSubjectAndVersion returns the cached schema for subject and version, or nil.
func (a *CacheAdapter) GetWithSubjectAndVersion(ctx context.Context, subject string, version int) (*goavro.Codec, error) {
	return a.getCodec(ctx, "get_with_subject_and_version", kindSubjectVersion, subjectVersion(subject, version))
}

// GetIDWithHash returns the cached schema id for hash and whether it was found.
func (a *CacheAdapter) GetIDWithHash(ctx context.Context, hash string) (int, bool, error) {
	start := time.Now()
	value, found, err := a.store.Get(ctx, a.Key(kindHash, hash))
	if err != nil {
		a.observeOperation("get_id_with_hash", kindHash, hash, time.Since(start), err, nil)
		return 0, false, err
	}
	if !found {
		a.observeOperation("get_id_with_hash", kindHash, hash, time.Since(start), nil, map[string]interface{}{"cache_hit": false})
		return 0, false, nil
	}

	id, err := strconv.Atoi(value)
	if err != nil {
		err = fmt.Errorf("%w: hash %s maps to %q", ErrMalformedSchema, hash, value)
		a.logError(ctx, "Cached schema id is not a number", err, map[string]interface{}{"hash": hash})
		a.observeOperation("get_id_with_hash", kindHash, hash, time.Since(start), err, nil)
		return 0, false, err
	}

	a.observeOperation("get_id_with_hash", kindHash, hash, time.Since(start), nil, map[string]interface{}{"cache_hit": true})
	return id, true, nil
}

// HasSchemaForID reports whether a schema is cached for id.
func (a *CacheAdapter) HasSchemaForID(ctx context.Context, id int) (bool, error) {
	return a.store.Has(ctx, a.Key(kindID, strconv.Itoa(id)))
}

// HasSchemaIDForHash reports whether a schema id is cached for hash.
func (a *CacheAdapter) HasSchemaIDForHash(ctx context.Context, hash string) (bool, error) {
	return a.store.Has(ctx, a.Key(kindHash, hash))
}

// HasSchemaForSubjectAndVersion reports whether a schema is cached for subject and version.
func (a *CacheAdapter) HasSchemaForSubjectAndVersion(ctx context.Context, subject string, version int) (bool, error) {
	return a.store.Has(ctx, a.Key(kindSubjectVersion, subjectVersion(subject, version)))
}

// Key returns the store key of raw in the given key space.
func (a *CacheAdapter) Key(kind, raw string) string {
	sum := sha1.Sum([]byte(a.identity + "::" + kind + "::" + raw)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// WithObserver sets the observer for this adapter and returns it for method chaining.
func (a *CacheAdapter) WithObserver(observer observability.Observer) *CacheAdapter {
	a.observer = observer
	return a
}

// WithLogger sets the logger for this adapter and returns it for method chaining.
func (a *CacheAdapter) WithLogger(logger Logger) *CacheAdapter {
	a.logger = logger
	return a
}

func (a *CacheAdapter) add(ctx context.Context, operation, kind, raw, value string) error {
	start := time.Now()
	written, err := a.store.Add(ctx, a.Key(kind, raw), value)
	if err != nil {
		a.logError(ctx, "Failed to write schema cache entry", err, map[string]interface{}{"kind": kind, "key": raw})
	}
	a.observeOperation(operation, kind, raw, time.Since(start), err, map[string]interface{}{"written": written})
	return err
}

func (a *CacheAdapter) getCodec(ctx context.Context, operation, kind, raw string) (*goavro.Codec, error) {
	start := time.Now()
	schema, found, err := a.store.Get(ctx, a.Key(kind, raw))
	if err != nil {
		a.observeOperation(operation, kind, raw, time.Since(start), err, nil)
		return nil, err
	}
	if !found {
		a.observeOperation(operation, kind, raw, time.Since(start), nil, map[string]interface{}{"cache_hit": false})
		return nil, nil
	}

	codec, err := goavro.NewCodec(schema)
	if err != nil {
		err = fmt.Errorf("%w: %s %s: %v", ErrMalformedSchema, kind, raw, err)
		a.logError(ctx, "Cached schema could not be parsed", err, map[string]interface{}{"kind": kind, "key": raw})
		a.observeOperation(operation, kind, raw, time.Since(start), err, nil)
		return nil, err
	}

	a.observeOperation(operation, kind, raw, time.Since(start), nil, map[string]interface{}{"cache_hit": true})
	return codec, nil
}

func (a *CacheAdapter) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if a.logger != nil {
		a.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}

func (a *CacheAdapter) observeOperation(operation, resource, subResource string, duration time.Duration, err error, metadata map[string]interface{}) {
	if a.observer == nil {
		return
	}
	a.observer.ObserveOperation(observability.OperationContext{
		Component:   "schema_cache",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Metadata:    metadata,
	})
}

func subjectVersion(subject string, version int) string {
	return subject + "_" + strconv.Itoa(version)
}

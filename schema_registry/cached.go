package schema_registry

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"fmt"

	"github.com/linkedin/goavro/v2"
)

// Cache memoizes registry answers. It is satisfied by *schemacache.CacheAdapter.
// The Has checks run first so a miss never parses a cached value.
type Cache interface {
	HasSchemaForID(ctx context.Context, id int) (bool, error)
	HasSchemaForSubjectAndVersion(ctx context.Context, subject string, version int) (bool, error)
	HasSchemaIDForHash(ctx context.Context, hash string) (bool, error)
	CacheSchemaWithID(ctx context.Context, codec *goavro.Codec, id int) error
	CacheSchemaWithSubjectAndVersion(ctx context.Context, codec *goavro.Codec, subject string, version int) error
	CacheSchemaIDByHash(ctx context.Context, id int, hash string) error
	GetWithID(ctx context.Context, id int) (*goavro.Codec, error)
	GetWithSubjectAndVersion(ctx context.Context, subject string, version int) (*goavro.Codec, error)
	GetIDWithHash(ctx context.Context, hash string) (int, bool, error)
}

// CachedRegistry answers schema lookups from a Cache and falls back to the registry
// on a miss, writing the answer back. Latest is never served from the cache because
// the latest version of a subject changes over time.
type CachedRegistry struct {
	registry Registry
	cache    Cache
	logger   Logger
}

// NewCachedRegistry wraps registry with cache.
func NewCachedRegistry(registry Registry, cache Cache) *CachedRegistry {
	return &CachedRegistry{registry: registry, cache: cache}
}

// WithLogger sets the logger used to report cache write failures.
func (r *CachedRegistry) WithLogger(logger Logger) *CachedRegistry {
	r.logger = logger
	return r
}

// SchemaHash returns the hex SHA-1 of the canonical form of the schema.
func SchemaHash(codec *goavro.Codec) string {
	sum := sha1.Sum([]byte(codec.CanonicalSchema())) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// SchemaByID returns the writer schema registered under id.
func (r *CachedRegistry) SchemaByID(ctx context.Context, id int) (*goavro.Codec, error) {
	cached, err := r.cache.HasSchemaForID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached {
		codec, err := r.cache.GetWithID(ctx, id)
		if err != nil {
			return nil, err
		}
		if codec != nil {
			return codec, nil
		}
	}

	schema, err := r.registry.GetSchemaByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch schema %d: %w", id, err)
	}

	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: parse schema %d: %v", ErrSerialization, id, err)
	}

	r.warnOnCacheError(ctx, r.cache.CacheSchemaWithID(ctx, codec, id))
	return codec, nil
}

// SchemaBySubjectAndVersion returns the schema of one version of subject.
func (r *CachedRegistry) SchemaBySubjectAndVersion(ctx context.Context, subject string, version int) (*goavro.Codec, error) {
	cached, err := r.cache.HasSchemaForSubjectAndVersion(ctx, subject, version)
	if err != nil {
		return nil, err
	}
	if cached {
		codec, err := r.cache.GetWithSubjectAndVersion(ctx, subject, version)
		if err != nil {
			return nil, err
		}
		if codec != nil {
			return codec, nil
		}
	}

	metadata, err := r.registry.GetSchemaBySubjectVersion(ctx, subject, version)
	if err != nil {
		return nil, fmt.Errorf("fetch %s version %d: %w", subject, version, err)
	}

	codec, err := goavro.NewCodec(metadata.Schema)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s version %d: %v", ErrSerialization, subject, version, err)
	}

	r.warnOnCacheError(ctx, r.cache.CacheSchemaWithSubjectAndVersion(ctx, codec, subject, version))
	r.warnOnCacheError(ctx, r.cache.CacheSchemaWithID(ctx, codec, metadata.ID))
	return codec, nil
}

// SchemaID returns the id under which codec is registered for subject.
// The registry is asked only when the schema hash is not cached yet.
func (r *CachedRegistry) SchemaID(ctx context.Context, subject string, codec *goavro.Codec) (int, error) {
	hash := SchemaHash(codec)

	cached, err := r.cache.HasSchemaIDForHash(ctx, hash)
	if err != nil {
		return 0, err
	}
	if cached {
		id, found, err := r.cache.GetIDWithHash(ctx, hash)
		if err != nil {
			return 0, err
		}
		if found {
			return id, nil
		}
	}

	metadata, err := r.registry.LookupSchema(ctx, subject, codec.Schema(), "AVRO")
	if err != nil {
		return 0, fmt.Errorf("lookup schema in %s: %w", subject, err)
	}

	r.remember(ctx, codec, metadata.ID, hash)
	return metadata.ID, nil
}

// Register registers codec under subject and caches the returned id.
func (r *CachedRegistry) Register(ctx context.Context, subject string, codec *goavro.Codec) (int, error) {
	id, err := r.registry.RegisterSchema(ctx, subject, codec.Schema(), "AVRO")
	if err != nil {
		return 0, fmt.Errorf("register schema in %s: %w", subject, err)
	}

	r.remember(ctx, codec, id, SchemaHash(codec))
	return id, nil
}

// Latest returns the latest version of subject. The answer is cached under its id
// and version, but the latest lookup itself always goes to the registry.
func (r *CachedRegistry) Latest(ctx context.Context, subject string) (*Metadata, *goavro.Codec, error) {
	metadata, err := r.registry.GetLatestSchema(ctx, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch latest %s: %w", subject, err)
	}

	codec, err := goavro.NewCodec(metadata.Schema)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse latest %s: %v", ErrSerialization, subject, err)
	}

	r.warnOnCacheError(ctx, r.cache.CacheSchemaWithID(ctx, codec, metadata.ID))
	r.warnOnCacheError(ctx, r.cache.CacheSchemaWithSubjectAndVersion(ctx, codec, subject, metadata.Version))
	return metadata, codec, nil
}

func (r *CachedRegistry) remember(ctx context.Context, codec *goavro.Codec, id int, hash string) {
	r.warnOnCacheError(ctx, r.cache.CacheSchemaIDByHash(ctx, id, hash))
	r.warnOnCacheError(ctx, r.cache.CacheSchemaWithID(ctx, codec, id))
}

func (r *CachedRegistry) warnOnCacheError(ctx context.Context, err error) {
	if err != nil && r.logger != nil {
		r.logger.WarnWithContext(ctx, "Failed to write schema cache entry", err)
	}
}

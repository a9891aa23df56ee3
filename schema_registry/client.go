package schema_registry

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aalemi-dev/stdlib-events/observability"
)

const contentType = "application/vnd.schemaregistry.v1+json"

// Registry provides an interface for interacting with a Confluent Schema Registry.
type Registry interface {
	// GetSchemaByID retrieves a schema by its ID
	GetSchemaByID(ctx context.Context, id int) (string, error)

	// GetSchemaBySubjectVersion retrieves one version of a subject
	GetSchemaBySubjectVersion(ctx context.Context, subject string, version int) (*Metadata, error)

	// GetLatestSchema retrieves the latest version of a schema for a subject
	GetLatestSchema(ctx context.Context, subject string) (*Metadata, error)

	// LookupSchema finds a schema already registered under a subject
	LookupSchema(ctx context.Context, subject, schema, schemaType string) (*Metadata, error)

	// RegisterSchema registers a new schema for a subject
	RegisterSchema(ctx context.Context, subject, schema, schemaType string) (int, error)

	// CheckCompatibility checks if a schema is compatible with the latest version
	CheckCompatibility(ctx context.Context, subject, schema, schemaType string) (bool, error)
}

// Metadata contains metadata about a registered schema
type Metadata struct {
	ID      int    `json:"id"`
	Version int    `json:"version"`
	Schema  string `json:"schema"`
	Subject string `json:"subject"`
	Type    string `json:"schemaType,omitempty"`
}

// Client is the default implementation of Registry
// that communicates with Confluent Schema Registry over HTTP.
// It does not cache; wrap it in a CachedRegistry for that.
type Client struct {
	url        string
	httpClient *http.Client

	// Authentication
	username string
	password string

	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// logger provides optional context-aware logging capabilities
	logger Logger
}

// Config holds configuration for schema registry client
type Config struct {
	// URL is the schema registry endpoint (e.g., "http://localhost:8081")
	URL string `yaml:"url" env:"SCHEMA_REGISTRY_URL"`

	// Username for basic auth (optional)
	Username string `yaml:"username" env:"SCHEMA_REGISTRY_USERNAME"`

	// Password for basic auth (optional)
	Password string `yaml:"password" env:"SCHEMA_REGISTRY_PASSWORD" json:"-"` //nolint:gosec

	// Timeout for HTTP requests
	Timeout time.Duration `yaml:"timeout" env:"SCHEMA_REGISTRY_TIMEOUT" env-default:"10s"`

	// RegisterMissingSchemas registers a schema on encode when the subject exists
	// but does not know it yet.
	RegisterMissingSchemas bool `yaml:"register_missing_schemas" env:"SCHEMA_REGISTRY_REGISTER_MISSING_SCHEMAS"`

	// RegisterMissingSubjects registers a schema on encode when the subject does not exist.
	RegisterMissingSubjects bool `yaml:"register_missing_subjects" env:"SCHEMA_REGISTRY_REGISTER_MISSING_SUBJECTS"`
}

// Logger is an interface that matches the logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// NewClient creates a new schema registry client
// Returns the concrete *Client type.
func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("schema registry URL is required")
	}

	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		url: config.URL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		username: config.Username,
		password: config.Password,
	}, nil
}

// GetSchemaByID retrieves a schema from the registry by its ID
func (c *Client) GetSchemaByID(ctx context.Context, id int) (string, error) {
	start := time.Now()

	var result struct {
		Schema string `json:"schema"`
	}
	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/schemas/ids/%d", id), nil, &result)
	c.observeOperation("get_schema_by_id", "registry", strconv.Itoa(id), time.Since(start), err, statusMetadata(status))
	if err != nil {
		return "", err
	}

	return result.Schema, nil
}

// GetSchemaBySubjectVersion retrieves a specific version of a subject
func (c *Client) GetSchemaBySubjectVersion(ctx context.Context, subject string, version int) (*Metadata, error) {
	return c.getVersion(ctx, "get_schema_by_subject_version", subject, strconv.Itoa(version))
}

// GetLatestSchema retrieves the latest version of a schema for a subject
func (c *Client) GetLatestSchema(ctx context.Context, subject string) (*Metadata, error) {
	return c.getVersion(ctx, "get_latest_schema", subject, "latest")
}

func (c *Client) getVersion(ctx context.Context, operation, subject, version string) (*Metadata, error) {
	start := time.Now()

	var metadata Metadata
	path := fmt.Sprintf("/subjects/%s/versions/%s", url.PathEscape(subject), version)
	status, err := c.do(ctx, http.MethodGet, path, nil, &metadata)
	if err != nil {
		c.observeOperation(operation, subject, version, time.Since(start), err, statusMetadata(status))
		return nil, err
	}

	metadata.Subject = subject

	c.observeOperation(operation, subject, version, time.Since(start), nil, map[string]interface{}{
		"schema_id":   metadata.ID,
		"version":     metadata.Version,
		"schema_type": metadata.Type,
	})
	return &metadata, nil
}

// LookupSchema checks whether schema is registered under subject and returns its
// id and version.
func (c *Client) LookupSchema(ctx context.Context, subject, schema, schemaType string) (*Metadata, error) {
	start := time.Now()

	var metadata Metadata
	status, err := c.do(ctx, http.MethodPost, "/subjects/"+url.PathEscape(subject), schemaPayload(schema, schemaType), &metadata)
	if err != nil {
		c.observeOperation("lookup_schema", subject, "", time.Since(start), err, statusMetadata(status))
		return nil, err
	}

	metadata.Subject = subject

	c.observeOperation("lookup_schema", subject, strconv.Itoa(metadata.ID), time.Since(start), nil, map[string]interface{}{
		"schema_id":   metadata.ID,
		"version":     metadata.Version,
		"schema_type": schemaType,
	})
	return &metadata, nil
}

// RegisterSchema registers a new schema with the schema registry
func (c *Client) RegisterSchema(ctx context.Context, subject, schema, schemaType string) (int, error) {
	start := time.Now()

	var result struct {
		ID int `json:"id"`
	}
	path := fmt.Sprintf("/subjects/%s/versions", url.PathEscape(subject))
	status, err := c.do(ctx, http.MethodPost, path, schemaPayload(schema, schemaType), &result)
	if err != nil {
		metadata := statusMetadata(status)
		metadata["schema_type"] = schemaType
		c.observeOperation("register_schema", subject, "", time.Since(start), err, metadata)
		c.logError(ctx, "Failed to register schema", err, map[string]interface{}{"subject": subject})
		return 0, err
	}

	c.observeOperation("register_schema", subject, strconv.Itoa(result.ID), time.Since(start), nil, map[string]interface{}{
		"schema_type": schemaType,
		"schema_id":   result.ID,
	})
	c.logInfo(ctx, "Schema registered", map[string]interface{}{"subject": subject, "schema_id": result.ID})
	return result.ID, nil
}

// CheckCompatibility checks if a schema is compatible with the existing schema for a subject
func (c *Client) CheckCompatibility(ctx context.Context, subject, schema, schemaType string) (bool, error) {
	start := time.Now()

	var result struct {
		IsCompatible bool `json:"is_compatible"`
	}
	path := fmt.Sprintf("/compatibility/subjects/%s/versions/latest", url.PathEscape(subject))
	status, err := c.do(ctx, http.MethodPost, path, schemaPayload(schema, schemaType), &result)
	if err != nil {
		metadata := statusMetadata(status)
		metadata["schema_type"] = schemaType
		c.observeOperation("check_compatibility", subject, "latest", time.Since(start), err, metadata)
		return false, err
	}

	if !result.IsCompatible {
		c.logWarn(ctx, "Schema is not compatible with the latest version", map[string]interface{}{"subject": subject})
	}

	c.observeOperation("check_compatibility", subject, "latest", time.Since(start), nil, map[string]interface{}{
		"schema_type":   schemaType,
		"is_compatible": result.IsCompatible,
	})
	return result.IsCompatible, nil
}

// do sends one request to the registry and decodes a 200 response into out.
// It returns the HTTP status code when a response was received.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", contentType)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec
	if err != nil {
		return 0, fmt.Errorf("schema registry request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, newRegistryError(resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func schemaPayload(schema, schemaType string) map[string]interface{} {
	payload := map[string]interface{}{
		"schema": schema,
	}
	if schemaType != "" && schemaType != "AVRO" {
		payload["schemaType"] = schemaType
	}
	return payload
}

func statusMetadata(status int) map[string]interface{} {
	metadata := map[string]interface{}{}
	if status != 0 {
		metadata["status_code"] = status
	}
	return metadata
}

// EncodeSchemaID encodes a schema ID in the Confluent wire format
// Format: [magic_byte][schema_id]
// - magic_byte: 0x0 (1 byte)
// - schema_id: 4 bytes (big-endian)
func EncodeSchemaID(schemaID int) []byte {
	buf := make([]byte, 5)
	buf[0] = MagicByte
	binary.BigEndian.PutUint32(buf[1:], uint32(schemaID)) //nolint:gosec
	return buf
}

// DecodeSchemaID decodes a schema ID from the Confluent wire format
// Returns the schema ID and the remaining payload (after the 5-byte header)
func DecodeSchemaID(data []byte) (int, []byte, error) {
	if len(data) < 5 {
		return 0, nil, fmt.Errorf("data too short: expected at least 5 bytes, got %d", len(data))
	}

	if data[0] != MagicByte {
		return 0, nil, fmt.Errorf("invalid magic byte: expected 0x0, got 0x%x", data[0])
	}

	schemaID := int(binary.BigEndian.Uint32(data[1:5]))
	payload := data[5:]

	return schemaID, payload, nil
}

// MagicByte opens every record written in the Confluent wire format.
const MagicByte byte = 0x0

// HasWireHeader reports whether data starts with a Confluent wire format header.
func HasWireHeader(data []byte) bool {
	return len(data) >= 5 && data[0] == MagicByte
}

// WithObserver sets the observer for this client and returns the client for method chaining.
// The observer receives events about schema registry operations (e.g., register, get, check compatibility).
//
// Example:
//
//	client := client.WithObserver(myObserver).WithLogger(myLogger)
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger sets the logger for this client and returns the client for method chaining.
// The logger is used for structured logging of client operations and errors.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// logInfo logs an informational message if a logger is configured
func (c *Client) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

// logWarn logs a warning message if a logger is configured
func (c *Client) logWarn(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.WarnWithContext(ctx, msg, nil, fields)
	}
}

// logError logs an error message if a logger is configured
func (c *Client) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}

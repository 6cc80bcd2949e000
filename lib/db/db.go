package db

import (
	"context"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplSQLite Implementation = "sqlite" // transactional, file-backed engine
	ImplBolt   Implementation = "bolt"   // memory-mapped embedded KV engine
	ImplMemory Implementation = "memory" // ephemeral in-process engine
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureGet          Feature = 1 << iota // Support for Get operations
	FeatureSet                              // Support for Set operations
	FeatureDurable                          // Data survives closing and reopening the engine
	FeatureSchema                           // Open creates a table/schema (create-if-absent)
	FeatureMemoryMapped                     // Reads are served from a memory-mapped file
)

func (f Feature) String() string {
	switch f {
	case FeatureGet:
		return "Get"
	case FeatureSet:
		return "Set"
	case FeatureDurable:
		return "Durable"
	case FeatureSchema:
		return "Schema"
	case FeatureMemoryMapped:
		return "MemoryMapped"
	default:
		return "Unknown"
	}
}

// MarshalText renders a single flag by name, so json and yaml output is readable.
func (f Feature) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a flag name written by MarshalText.
func (f *Feature) UnmarshalText(text []byte) error {
	for _, known := range AllFeatures {
		if known.String() == string(text) {
			*f = known
			return nil
		}
	}
	return fmt.Errorf("unknown feature %q", text)
}

// AllFeatures lists every known feature flag, in declaration order.
var AllFeatures = []Feature{FeatureGet, FeatureSet, FeatureDurable, FeatureSchema, FeatureMemoryMapped}

// FeatureList expands a feature bit set into its single flags.
func FeatureList(set Feature) []Feature {
	var out []Feature
	for _, f := range AllFeatures {
		if set&f == f {
			out = append(out, f)
		}
	}
	return out
}

type DatabaseInfo struct {
	Namespace         string         `json:"namespace" yaml:"namespace"`
	Path              string         `json:"path,omitempty" yaml:"path,omitempty"`
	SizeBytes         int64          `json:"size_bytes" yaml:"size_bytes"`
	DbType            Implementation `json:"db_type" yaml:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features" yaml:"supported_features"`
	Metadata          map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrNotOpen is returned by Get/Set when Open has not completed successfully.
	ErrNotOpen = errors.New("database is not open")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("database is closed")
)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines the contract of a storage engine sitting behind a store.
// An engine is bound to one namespace at construction time. Constructing an
// engine must not perform I/O; all expensive setup happens in Open.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Lifecycle
	// --------------------------------------------------------------------------

	// Open opens or creates the backing file/engine for the namespace and makes
	// sure the schema exists. It must be idempotent across process restarts:
	// opening an existing store never fails because of existing structures and
	// never discards data.
	Open(ctx context.Context) (err error)

	// Close releases the engine. Data is kept. Close on a never opened engine is a no-op.
	Close() (err error)

	// --------------------------------------------------------------------------
	// Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a value for the key was found.
	// An empty stored value must be reported as ("", true).
	Get(ctx context.Context, key string) (value string, loaded bool, err error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key, value string) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)
}

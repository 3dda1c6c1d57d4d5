package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"depsweep/internal/deps"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidIndex is returned when a symbol index does not match its schema.
var ErrInvalidIndex = errors.New("invalid symbol index")

const indexSchemaURL = "depsweep-symbol-index.schema.json"

const indexSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["artifacts"],
  "properties": {
    "artifacts": {
      "type": "object",
      "propertyNames": { "pattern": "^[^:\\s]+:[^:\\s]+(:[^:\\s]+)?$" },
      "additionalProperties": {
        "type": "array",
        "items": {
          "type": "string",
          "pattern": "^[A-Za-z_$][A-Za-z0-9_$.]*(#[A-Za-z0-9_$<>]+|\\.\\*)?$"
        }
      }
    }
  }
}`

var (
	compiledIndexSchema *jsonschema.Schema
	indexSchemaErr      error
	indexSchemaOnce     sync.Once
)

func loadIndexSchema() (*jsonschema.Schema, error) {
	indexSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(indexSchemaURL, strings.NewReader(indexSchema)); err != nil {
			indexSchemaErr = err
			return
		}
		compiledIndexSchema, indexSchemaErr = compiler.Compile(indexSchemaURL)
	})
	return compiledIndexSchema, indexSchemaErr
}

// Index is a static symbol table keyed by "group:artifact:version" or "group:artifact".
type Index struct {
	artifacts map[string]deps.SymbolSet
}

type indexFile struct {
	Artifacts map[string][]string `json:"artifacts"`
}

func NewIndex(artifacts map[string][]string) *Index {
	idx := &Index{artifacts: make(map[string]deps.SymbolSet, len(artifacts))}
	for key, symbols := range artifacts {
		idx.artifacts[key] = deps.NewSymbolSet(symbols...)
	}
	return idx
}

// LoadIndex reads and validates a JSON symbol index file.
func LoadIndex(path string) (*Index, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol index %s: %w", path, err)
	}
	return ParseIndex(content)
}

func ParseIndex(content []byte) (*Index, error) {
	schema, err := loadIndexSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile index schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}

	var f indexFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, err)
	}
	return NewIndex(f.Artifacts), nil
}

func (i *Index) Name() string {
	return "index"
}

func (i *Index) Resolve(ctx context.Context, dep deps.Dependency) (deps.SymbolSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dep.Version != "" {
		if s, ok := i.artifacts[dep.Coordinates()]; ok {
			return s, nil
		}
	}
	if s, ok := i.artifacts[dep.GroupArtifact()]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s: not in symbol index", ErrUnresolved, dep.Coordinates())
}

func (i *Index) Len() int {
	return len(i.artifacts)
}

// Package schemafile loads a schema view from a JSON document on disk
// and exposes a file watcher that reloads it on change.
package schemafile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/satishbabariya/recordcache/internal/rerr"
	"github.com/satishbabariya/recordcache/internal/wire"
	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

// wireRelationship is the on-disk shape of a relationship declaration.
type wireRelationship struct {
	Kind    string `json:"kind"`
	Model   string `json:"model"`
	Inverse string `json:"inverse,omitempty"`
}

// wireModel is the on-disk shape of one model declaration.
type wireModel struct {
	Attributes    []string                    `json:"attributes"`
	Keys          []string                    `json:"keys"`
	Relationships map[string]wireRelationship `json:"relationships"`
}

// Document is the on-disk schema document: a format version plus a flat
// map of model type name to its declaration. Version defaults to
// wire.MinVersion's string form when omitted, so hand-written fixtures
// without a "version" key still parse.
type Document struct {
	Version string               `json:"version,omitempty"`
	Models  map[string]wireModel `json:"models"`
}

// Parse decodes a JSON schema document into a recordcache.StaticSchema,
// after checking that the document declares a format version this build
// can read.
func Parse(data []byte) (*recordcache.StaticSchema, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schemafile: parse: %w", err)
	}

	raw := doc.Version
	if raw == "" {
		raw = wire.MinVersion.String()
	}
	if err := wire.CheckCompatible(raw); err != nil {
		return nil, err
	}

	models := make(map[string]recordcache.ModelDef, len(doc.Models))
	for name, wm := range doc.Models {
		model := recordcache.ModelDef{
			Attributes:    make(map[string]struct{}, len(wm.Attributes)),
			Keys:          make(map[string]struct{}, len(wm.Keys)),
			Relationships: make(map[string]recordcache.RelationshipDef, len(wm.Relationships)),
		}
		for _, a := range wm.Attributes {
			model.Attributes[a] = struct{}{}
		}
		for _, k := range wm.Keys {
			model.Keys[k] = struct{}{}
		}
		for relName, wr := range wm.Relationships {
			kind, err := parseKind(name, relName, wr.Kind)
			if err != nil {
				return nil, err
			}
			model.Relationships[relName] = recordcache.RelationshipDef{
				Kind:    kind,
				Model:   wr.Model,
				Inverse: wr.Inverse,
			}
		}
		models[name] = model
	}
	return recordcache.NewStaticSchema(models), nil
}

func parseKind(modelType, relName, raw string) (recordcache.RelationshipKind, error) {
	switch raw {
	case string(recordcache.HasOne):
		return recordcache.HasOne, nil
	case string(recordcache.HasMany):
		return recordcache.HasMany, nil
	default:
		return "", rerr.NewWrongRelationshipKindError(modelType, relName)
	}
}

// Load reads and parses the schema document at path.
func Load(path string) (*recordcache.StaticSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}
	return Parse(data)
}

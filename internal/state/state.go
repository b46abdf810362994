// Package state models the prior-state snapshot the sequencer diffs
// against. The snapshot is an opaque external input: the evaluator only
// reads it, never writes it, and rebuilds everything else from scratch on
// every planning run.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Instance is the previously observed record of one resource instance.
type Instance struct {
	// Attributes holds the attribute values observed when the instance was
	// last realized.
	Attributes cty.Value
	// Dependencies records the instance addresses this instance depended on
	// when it was realized. They order destroys of instances whose
	// configuration no longer exists.
	Dependencies []string
}

// Snapshot maps canonical instance addresses to their prior records. A nil
// or empty snapshot means nothing has been realized yet.
type Snapshot map[string]*Instance

// Addrs returns every recorded instance address, sorted.
func (s Snapshot) Addrs() []string {
	addrs := make([]string, 0, len(s))
	for a := range s {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	return addrs
}

// fileFormat is the JSON shape of a snapshot file.
type fileFormat struct {
	Instances map[string]fileInstance `json:"instances"`
}

type fileInstance struct {
	Attributes   json.RawMessage `json:"attributes"`
	Dependencies []string        `json:"dependencies,omitempty"`
}

// ReadFile loads a snapshot from a local JSON file. Attribute values take
// whatever structural type the JSON implies.
func ReadFile(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state snapshot %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a snapshot from raw JSON.
func Parse(raw []byte) (Snapshot, error) {
	var file fileFormat
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("malformed state snapshot: %w", err)
	}

	snapshot := make(Snapshot, len(file.Instances))
	for instAddr, record := range file.Instances {
		attrs := cty.EmptyObjectVal
		if len(record.Attributes) > 0 {
			ty, err := ctyjson.ImpliedType(record.Attributes)
			if err != nil {
				return nil, fmt.Errorf("malformed attributes for %s: %w", instAddr, err)
			}
			attrs, err = ctyjson.Unmarshal(record.Attributes, ty)
			if err != nil {
				return nil, fmt.Errorf("malformed attributes for %s: %w", instAddr, err)
			}
		}
		snapshot[instAddr] = &Instance{
			Attributes:   attrs,
			Dependencies: record.Dependencies,
		}
	}
	return snapshot, nil
}

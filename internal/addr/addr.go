// Package addr defines the structured identity of resource instances.
//
// Every node in the dependency graph, every plan change, and every prior
// state entry is keyed by an instance address. An address is a path of
// (mode, type, name) plus an optional instance key, serialized canonically
// as `aws_subnet.web[0]` or `data.aws_ami.ubuntu["west"]`. Treating the
// address as a real type, rather than a bare string, keeps key semantics
// (integer vs string) explicit everywhere.
package addr

import (
	"fmt"
	"strings"
)

// Mode distinguishes managed resources from data-source reads.
type Mode int

const (
	// Managed is an ordinary resource the plan may create, change or destroy.
	Managed Mode = iota
	// Data is a read-only data source realized by a Read operation.
	Data
)

// Resource identifies a configuration block before expansion.
type Resource struct {
	Mode Mode
	Type string
	Name string
}

// String returns the canonical form, e.g. "aws_vpc.main" or "data.aws_ami.x".
func (r Resource) String() string {
	if r.Mode == Data {
		return fmt.Sprintf("data.%s.%s", r.Type, r.Name)
	}
	return fmt.Sprintf("%s.%s", r.Type, r.Name)
}

// Instance identifies one expanded instance of a resource.
type Instance struct {
	Resource Resource
	Key      InstanceKey
}

// String returns the canonical instance form, e.g. "aws_subnet.web[0]".
func (i Instance) String() string {
	return i.Resource.String() + i.Key.keySuffix()
}

// Less orders instances by their canonical string form. Used wherever a
// deterministic ordering over instances is required.
func (i Instance) Less(other Instance) bool {
	return i.String() < other.String()
}

// InstanceKey is the per-instance part of an address. NoKey is used for
// blocks with neither count nor for_each, IntKey for count indices and
// StringKey for for_each keys. No other implementations exist.
type InstanceKey interface {
	keySuffix() string
}

// NoKey marks a single-instance resource.
var NoKey InstanceKey = noKey{}

type noKey struct{}

func (noKey) keySuffix() string { return "" }

// IntKey is a count index.
type IntKey int

func (k IntKey) keySuffix() string { return fmt.Sprintf("[%d]", int(k)) }

// StringKey is a for_each key.
type StringKey string

func (k StringKey) keySuffix() string { return fmt.Sprintf("[%q]", string(k)) }

// ParseResource parses a canonical resource address such as "aws_vpc.main"
// or "data.aws_ami.x". Instance keys are not accepted here.
func ParseResource(raw string) (Resource, error) {
	parts := strings.Split(raw, ".")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return Resource{Mode: Managed, Type: parts[0], Name: parts[1]}, nil
	case len(parts) == 3 && parts[0] == "data" && parts[1] != "" && parts[2] != "":
		return Resource{Mode: Data, Type: parts[1], Name: parts[2]}, nil
	}
	return Resource{}, fmt.Errorf("invalid resource address %q", raw)
}

// ParseInstance parses a canonical instance address, accepting an optional
// trailing [N] or ["key"] index.
func ParseInstance(raw string) (Instance, error) {
	base := raw
	key := NoKey

	if open := strings.IndexByte(raw, '['); open != -1 {
		if !strings.HasSuffix(raw, "]") {
			return Instance{}, fmt.Errorf("invalid instance address %q", raw)
		}
		base = raw[:open]
		inner := raw[open+1 : len(raw)-1]
		if strings.HasPrefix(inner, `"`) && strings.HasSuffix(inner, `"`) && len(inner) >= 2 {
			key = StringKey(inner[1 : len(inner)-1])
		} else {
			var idx int
			if _, err := fmt.Sscanf(inner, "%d", &idx); err != nil || fmt.Sprintf("%d", idx) != inner {
				return Instance{}, fmt.Errorf("invalid instance key in address %q", raw)
			}
			key = IntKey(idx)
		}
	}

	res, err := ParseResource(base)
	if err != nil {
		return Instance{}, err
	}
	return Instance{Resource: res, Key: key}, nil
}

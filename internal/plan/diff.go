package plan

import (
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/schema"
)

// changedAttributes compares a prior attribute object against the planned
// one and returns the sorted names of every attribute that differs. An
// attribute whose planned value is unknown until apply counts as changed:
// the plan must assume it will.
func changedAttributes(before, after cty.Value) []string {
	names := make(map[string]struct{})
	if before.Type().IsObjectType() {
		for name := range before.Type().AttributeTypes() {
			names[name] = struct{}{}
		}
	}
	if after.Type().IsObjectType() {
		for name := range after.Type().AttributeTypes() {
			names[name] = struct{}{}
		}
	}

	var changed []string
	for name := range names {
		beforeVal := attributeOrNull(before, name)
		afterVal := attributeOrNull(after, name)
		if !afterVal.IsWhollyKnown() || !beforeVal.RawEquals(afterVal) {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// attributeOrNull reads one attribute from an object value, mapping both a
// missing attribute and a non-object value to null.
func attributeOrNull(obj cty.Value, name string) cty.Value {
	if !obj.Type().IsObjectType() || !obj.Type().HasAttribute(name) {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return obj.GetAttr(name)
}

// updateAction decides between in-place update and replacement for a diff:
// the change stays in place only when every changed attribute is declared
// mutable by the resource schema.
func updateAction(resourceType string, changed []string, schemas schema.Provider) Action {
	if len(changed) == 0 {
		return NoOp
	}
	for _, name := range changed {
		if !schemas.MutableInPlace(resourceType, name) {
			if schemas.CreateBeforeDestroy(resourceType) {
				return CreateThenDelete
			}
			return DeleteThenCreate
		}
	}
	return Update
}

package resolver

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/evalerr"
)

// resolveVariables produces the final value of every declared variable.
// Precedence: user override, then declared default. A variable with neither
// fails; every final value must convert to the declared type and satisfy
// every validation predicate.
func resolveVariables(ctx context.Context, model *config.Model, overrides map[string]string) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	values := make(map[string]cty.Value, len(model.Variables))

	for _, name := range sortedNames(model.Variables) {
		v := model.Variables[name]

		var raw cty.Value
		if overrideStr, ok := overrides[name]; ok {
			raw = parseOverride(overrideStr)
			logger.Debug("Variable resolved from override.", "variable", name)
		} else if v.Default != nil {
			raw = *v.Default
			logger.Debug("Variable resolved from default.", "variable", name)
		} else {
			return nil, &evalerr.MissingValueError{Variable: name}
		}

		val, err := convert.Convert(raw, v.Type)
		if err != nil {
			return nil, &evalerr.TypeError{
				Subject: "variable " + name,
				Wanted:  v.Type.FriendlyName(),
				Got:     raw.Type().FriendlyName(),
			}
		}

		if err := checkValidations(v, val); err != nil {
			return nil, err
		}

		values[name] = val
	}

	// Overrides for undeclared variables are configuration mistakes, not
	// silently ignored input.
	for _, name := range sortedNames(overrides) {
		if _, declared := model.Variables[name]; !declared {
			return nil, &evalerr.ConfigError{
				Subject: "variable " + name,
				Detail:  "value supplied for undeclared variable",
			}
		}
	}

	return values, nil
}

// parseOverride interprets a raw -var string as an HCL expression so lists,
// maps, numbers and booleans round-trip; anything that does not parse or
// evaluate as an expression is taken as a literal string.
func parseOverride(raw string) cty.Value {
	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<variable override>", hcl.InitialPos)
	if !diags.HasErrors() {
		val, valDiags := expr.Value(nil)
		if !valDiags.HasErrors() && val.IsWhollyKnown() {
			return val
		}
	}
	return cty.StringVal(raw)
}

// checkValidations evaluates every validation predicate with only the
// validated variable in scope. The first false predicate fails the run with
// that predicate's declared message.
func checkValidations(v *config.Variable, val cty.Value) error {
	if len(v.Validations) == 0 {
		return nil
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(map[string]cty.Value{v.Name: val}),
		},
		Functions: Functions(),
	}

	for _, validation := range v.Validations {
		result, diags := validation.Condition.Value(evalCtx)
		if diags.HasErrors() {
			return diagError("validation condition for variable "+v.Name, diags)
		}
		result, err := convert.Convert(result, cty.Bool)
		if err != nil || !result.IsKnown() {
			return &evalerr.ConfigError{
				Subject: "variable " + v.Name,
				Detail:  "validation condition must produce a known boolean",
			}
		}
		if result.False() {
			return &evalerr.ValidationError{
				Variable: v.Name,
				Message:  validation.ErrorMessage,
			}
		}
	}
	return nil
}

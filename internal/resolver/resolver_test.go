package resolver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/evalerr"
	"github.com/thukhakyawe/terraform/internal/hclconf"
	"github.com/thukhakyawe/terraform/internal/resolver"
)

// loadModel writes the given source to a temp file and loads it.
func loadModel(t *testing.T, source string) *config.Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	model, err := hclconf.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	return model
}

func TestResolveVariables(t *testing.T) {
	t.Run("default is used when no override is given", func(t *testing.T) {
		model := loadModel(t, `
			variable "region" {
				type    = string
				default = "us-east-1"
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model, nil)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("us-east-1"), scope.Variables["region"])
	})

	t.Run("override wins over default", func(t *testing.T) {
		model := loadModel(t, `
			variable "region" {
				type    = string
				default = "us-east-1"
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model,
			map[string]string{"region": "eu-west-1"})
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("eu-west-1"), scope.Variables["region"])
	})

	t.Run("override strings parse as expressions", func(t *testing.T) {
		model := loadModel(t, `
			variable "instance_count" {
				type = number
			}
			variable "enabled" {
				type = bool
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model,
			map[string]string{"instance_count": "3", "enabled": "true"})
		require.NoError(t, err)
		assert.Equal(t, cty.MustParseNumberVal("3"), scope.Variables["instance_count"])
		assert.Equal(t, cty.True, scope.Variables["enabled"])
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		model := loadModel(t, `
			variable "region" {
				type = string
			}
		`)

		_, err := resolver.Resolve(context.Background(), model, nil)
		var missingErr *evalerr.MissingValueError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, "region", missingErr.Variable)
	})

	t.Run("value convertible to declared type is converted", func(t *testing.T) {
		model := loadModel(t, `
			variable "port" {
				type    = number
				default = "8080"
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model, nil)
		require.NoError(t, err)
		assert.Equal(t, cty.MustParseNumberVal("8080"), scope.Variables["port"])
	})

	t.Run("unconvertible value is a type error", func(t *testing.T) {
		model := loadModel(t, `
			variable "port" {
				type    = number
				default = "not-a-number"
			}
		`)

		_, err := resolver.Resolve(context.Background(), model, nil)
		var typeErr *evalerr.TypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "variable port", typeErr.Subject)
	})

	t.Run("override for undeclared variable fails", func(t *testing.T) {
		model := loadModel(t, `
			variable "region" {
				type    = string
				default = "us-east-1"
			}
		`)

		_, err := resolver.Resolve(context.Background(), model,
			map[string]string{"reigon": "typo"})
		var cfgErr *evalerr.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "variable reigon", cfgErr.Subject)
	})
}

func TestVariableValidations(t *testing.T) {
	source := `
		variable "environment" {
			type    = string
			default = "dev"

			validation {
				condition     = contains(["dev", "staging", "prod"], var.environment)
				error_message = "environment must be dev, staging or prod"
			}
		}
	`

	t.Run("passing value resolves", func(t *testing.T) {
		model := loadModel(t, source)
		scope, err := resolver.Resolve(context.Background(), model,
			map[string]string{"environment": "prod"})
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("prod"), scope.Variables["environment"])
	})

	t.Run("failing value reports the declared message", func(t *testing.T) {
		model := loadModel(t, source)
		_, err := resolver.Resolve(context.Background(), model,
			map[string]string{"environment": "qa"})
		var valErr *evalerr.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "environment", valErr.Variable)
		assert.Equal(t, "environment must be dev, staging or prod", valErr.Message)
	})
}

func TestResolveLocals(t *testing.T) {
	t.Run("locals evaluate in reference order", func(t *testing.T) {
		// `full` references `prefix`, declared after it. Evaluation order
		// must follow references, not declaration order.
		model := loadModel(t, `
			variable "environment" {
				type    = string
				default = "prod"
			}
			locals {
				full   = "${local.prefix}-app"
				prefix = "acme-${var.environment}"
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model, nil)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("acme-prod"), scope.Locals["prefix"])
		assert.Equal(t, cty.StringVal("acme-prod-app"), scope.Locals["full"])
	})

	t.Run("conditional local", func(t *testing.T) {
		model := loadModel(t, `
			variable "environment" {
				type    = string
				default = "dev"
			}
			locals {
				is_production = var.environment == "prod"
				subnet_count  = local.is_production ? 2 : 1
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model, nil)
		require.NoError(t, err)
		assert.Equal(t, cty.False, scope.Locals["is_production"])
		assert.Equal(t, cty.MustParseNumberVal("1"), scope.Locals["subnet_count"])
	})

	t.Run("two-local cycle fails", func(t *testing.T) {
		model := loadModel(t, `
			locals {
				a = local.b
				b = local.a
			}
		`)

		_, err := resolver.Resolve(context.Background(), model, nil)
		var cycleErr *evalerr.CyclicLocalError
		require.ErrorAs(t, err, &cycleErr)
		assert.ElementsMatch(t, []string{"a", "b"}, cycleErr.Cycle)
	})

	t.Run("self-referencing local fails", func(t *testing.T) {
		model := loadModel(t, `
			locals {
				a = "${local.a}-again"
			}
		`)

		_, err := resolver.Resolve(context.Background(), model, nil)
		var cycleErr *evalerr.CyclicLocalError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"a"}, cycleErr.Cycle)
	})

	t.Run("reference to undeclared local fails", func(t *testing.T) {
		model := loadModel(t, `
			locals {
				a = local.missing
			}
		`)

		_, err := resolver.Resolve(context.Background(), model, nil)
		var refErr *evalerr.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, "local.missing", refErr.Path)
	})

	t.Run("resource references stay unknown", func(t *testing.T) {
		model := loadModel(t, `
			locals {
				vpc_id = aws_vpc.main.id
			}
			resource "aws_vpc" "main" {
				cidr_block = "10.0.0.0/16"
			}
		`)

		scope, err := resolver.Resolve(context.Background(), model, nil)
		require.NoError(t, err)
		assert.False(t, scope.Locals["vpc_id"].IsKnown())
	})
}

func TestFunctions(t *testing.T) {
	model := loadModel(t, `
		locals {
			upper_name  = upper("acme")
			region_list = join(",", ["a", "b"])
			biggest     = max(3, 7, 5)
		}
	`)

	scope, err := resolver.Resolve(context.Background(), model, nil)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("ACME"), scope.Locals["upper_name"])
	assert.Equal(t, cty.StringVal("a,b"), scope.Locals["region_list"])
	assert.Equal(t, cty.MustParseNumberVal("7"), scope.Locals["biggest"])
}

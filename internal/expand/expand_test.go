package expand_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/evalerr"
	"github.com/thukhakyawe/terraform/internal/expand"
	"github.com/thukhakyawe/terraform/internal/hclconf"
	"github.com/thukhakyawe/terraform/internal/resolver"
)

// expandSource runs the load, resolve and expand stages over one source file.
func expandSource(t *testing.T, source string, overrides map[string]string) ([]*expand.Instance, error) {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	model, err := hclconf.NewLoader().Load(ctx, path)
	require.NoError(t, err)

	scope, err := resolver.Resolve(ctx, model, overrides)
	require.NoError(t, err)

	return expand.Expand(ctx, model, scope)
}

func addrs(instances []*expand.Instance) []string {
	out := make([]string, len(instances))
	for i, inst := range instances {
		out[i] = inst.Addr.String()
	}
	return out
}

func TestExpandSingleInstance(t *testing.T) {
	instances, err := expandSource(t, `
		resource "aws_vpc" "main" {
			cidr_block = "10.0.0.0/16"
		}
	`, nil)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	inst := instances[0]
	assert.Equal(t, "aws_vpc.main", inst.Addr.String())
	assert.Equal(t, addr.NoKey, inst.Addr.Key)
	assert.Equal(t, cty.StringVal("10.0.0.0/16"), inst.Attrs["cidr_block"])
}

func TestExpandCount(t *testing.T) {
	t.Run("count N produces N indexed instances", func(t *testing.T) {
		instances, err := expandSource(t, `
			resource "aws_subnet" "web" {
				count      = 3
				cidr_block = "10.0.${count.index}.0/24"
			}
		`, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"aws_subnet.web[0]",
			"aws_subnet.web[1]",
			"aws_subnet.web[2]",
		}, addrs(instances))

		assert.Equal(t, cty.StringVal("10.0.0.0/24"), instances[0].Attrs["cidr_block"])
		assert.Equal(t, cty.StringVal("10.0.2.0/24"), instances[2].Attrs["cidr_block"])
	})

	t.Run("count zero produces no instances", func(t *testing.T) {
		instances, err := expandSource(t, `
			resource "aws_eip" "extra" {
				count = 0
			}
		`, nil)
		require.NoError(t, err)
		assert.Empty(t, instances)
	})

	t.Run("count one still produces an indexed instance", func(t *testing.T) {
		instances, err := expandSource(t, `
			resource "aws_eip" "one" {
				count = 1
			}
		`, nil)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		assert.Equal(t, "aws_eip.one[0]", instances[0].Addr.String())
	})

	t.Run("negative count fails", func(t *testing.T) {
		_, err := expandSource(t, `
			resource "aws_eip" "bad" {
				count = -1
			}
		`, nil)
		var cfgErr *evalerr.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Detail, "negative")
	})

	t.Run("fractional count fails", func(t *testing.T) {
		_, err := expandSource(t, `
			resource "aws_eip" "bad" {
				count = 1.5
			}
		`, nil)
		var cfgErr *evalerr.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Detail, "whole number")
	})

	t.Run("count from conditional local", func(t *testing.T) {
		source := `
			variable "environment" {
				type    = string
				default = "dev"
			}
			locals {
				is_production = var.environment == "prod"
			}
			resource "aws_subnet" "web" {
				count      = local.is_production ? 2 : 1
				cidr_block = "10.0.${count.index}.0/24"
			}
		`

		dev, err := expandSource(t, source, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"aws_subnet.web[0]"}, addrs(dev))

		prod, err := expandSource(t, source, map[string]string{"environment": "prod"})
		require.NoError(t, err)
		assert.Equal(t, []string{"aws_subnet.web[0]", "aws_subnet.web[1]"}, addrs(prod))
	})
}

func TestExpandForEach(t *testing.T) {
	t.Run("map keys become instance keys", func(t *testing.T) {
		instances, err := expandSource(t, `
			resource "aws_instance" "app" {
				for_each = {
					web = "t3.micro"
					api = "t3.large"
				}
				instance_type = each.value
				name          = each.key
			}
		`, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			`aws_instance.app["api"]`,
			`aws_instance.app["web"]`,
		}, addrs(instances))

		assert.Equal(t, cty.StringVal("api"), instances[0].Attrs["name"])
		assert.Equal(t, cty.StringVal("t3.large"), instances[0].Attrs["instance_type"])
		assert.Equal(t, cty.StringVal("t3.micro"), instances[1].Attrs["instance_type"])
	})

	t.Run("set elements are both key and value", func(t *testing.T) {
		instances, err := expandSource(t, `
			resource "aws_iam_user" "ops" {
				for_each = ["alice", "bob"]
				name     = each.value
			}
		`, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			`aws_iam_user.ops["alice"]`,
			`aws_iam_user.ops["bob"]`,
		}, addrs(instances))
		assert.Equal(t, cty.StringVal("alice"), instances[0].Attrs["name"])
	})

	t.Run("expansion is idempotent for the same input", func(t *testing.T) {
		source := `
			resource "aws_iam_user" "ops" {
				for_each = ["carol", "alice", "bob"]
				name     = each.value
			}
		`
		first, err := expandSource(t, source, nil)
		require.NoError(t, err)
		second, err := expandSource(t, source, nil)
		require.NoError(t, err)
		assert.Equal(t, addrs(first), addrs(second))
		assert.Len(t, first, 3)
	})

	t.Run("duplicate keys fail", func(t *testing.T) {
		_, err := expandSource(t, `
			resource "aws_iam_user" "ops" {
				for_each = ["alice", "alice"]
			}
		`, nil)
		var cfgErr *evalerr.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Detail, "duplicate key")
	})

	t.Run("non-collection for_each fails", func(t *testing.T) {
		_, err := expandSource(t, `
			resource "aws_iam_user" "ops" {
				for_each = 42
			}
		`, nil)
		var cfgErr *evalerr.ConfigError
		require.ErrorAs(t, err, &cfgErr)
	})
}

func TestExpandReferences(t *testing.T) {
	t.Run("cross-resource references evaluate to unknown", func(t *testing.T) {
		instances, err := expandSource(t, `
			resource "aws_vpc" "main" {
				cidr_block = "10.0.0.0/16"
			}
			resource "aws_subnet" "web" {
				vpc_id     = aws_vpc.main.id
				cidr_block = "10.0.1.0/24"
			}
		`, nil)
		require.NoError(t, err)
		require.Len(t, instances, 2)

		subnet := instances[0]
		require.Equal(t, "aws_subnet.web", subnet.Addr.String())
		assert.False(t, subnet.Attrs["vpc_id"].IsKnown())
		assert.Equal(t, cty.StringVal("10.0.1.0/24"), subnet.Attrs["cidr_block"])
	})

	t.Run("reference to undeclared resource fails with the exact path", func(t *testing.T) {
		_, err := expandSource(t, `
			resource "aws_subnet" "web" {
				vpc_id = aws_vpc.missing.id
			}
		`, nil)
		var refErr *evalerr.ReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Contains(t, refErr.Subject, `aws_subnet.web attribute "vpc_id"`)
	})
}

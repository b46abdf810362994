// Package config defines the format-agnostic configuration model for the
// evaluator, along with the Loader interface for producing it from source
// files.
//
// The config.Model is the single source of truth for the resolver, expand
// and graph packages. Most fields hold raw hcl.Expression values rather
// than concrete Go values: evaluation is deliberately deferred so a later
// stage can resolve each expression against the bindings that exist at that
// point in the pipeline (variables and locals first, then per-instance
// count.index / each.* bindings).
package config

// Package hclconf loads .hcl configuration files and translates them into
// the format-agnostic config model. It is the only package that knows the
// concrete block syntax; everything downstream works with config.Model.
package hclconf

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/thukhakyawe/terraform/internal/addr"
	"github.com/thukhakyawe/terraform/internal/config"
	"github.com/thukhakyawe/terraform/internal/ctxlog"
	"github.com/thukhakyawe/terraform/internal/evalerr"
	"github.com/thukhakyawe/terraform/internal/fsutil"
)

// fileSchema describes the top-level blocks a configuration file may contain.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
		{Type: "locals"},
		{Type: "resource", LabelNames: []string{"type", "name"}},
		{Type: "data", LabelNames: []string{"type", "name"}},
	},
}

// variableSchema describes the body of a variable block.
var variableSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "default"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "validation"},
	},
}

// validationSchema describes the body of a validation block.
var validationSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "condition", Required: true},
		{Name: "error_message", Required: true},
	},
}

// Loader reads HCL files into a config.Model. It implements config.Loader.
type Loader struct{}

// NewLoader returns a ready-to-use HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file reachable from the given paths. A path may be
// a single file or a directory searched recursively. All files contribute
// to one unified model; names must be unique across the whole set.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration path %s: %w", path, err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("failed to find configuration files in %s: %w", path, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	model := config.NewModel()
	parser := hclparse.NewParser()
	for _, file := range files {
		if err := l.loadFile(ctx, parser, file, model); err != nil {
			return nil, err
		}
	}

	logger.Debug("Configuration model loaded.",
		"variables", len(model.Variables),
		"locals", len(model.Locals),
		"resources", len(model.Resources),
	)
	return model, nil
}

// loadFile parses one file and merges its blocks into the model.
func (l *Loader) loadFile(ctx context.Context, parser *hclparse.Parser, path string, model *config.Model) error {
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	content, diags := hclFile.Body.Content(fileSchema)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	for _, block := range content.Blocks {
		var err error
		switch block.Type {
		case "variable":
			err = l.decodeVariable(block, model)
		case "locals":
			err = l.decodeLocals(block, model)
		case "resource":
			err = l.decodeResource(block, addr.Managed, model)
		case "data":
			err = l.decodeResource(block, addr.Data, model)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// decodeVariable translates one variable block.
func (l *Loader) decodeVariable(block *hcl.Block, model *config.Model) error {
	name := block.Labels[0]
	if _, exists := model.Variables[name]; exists {
		return &evalerr.ConfigError{
			Subject: fmt.Sprintf("variable %q", name),
			Detail:  "declared more than once",
		}
	}

	content, diags := block.Body.Content(variableSchema)
	if diags.HasErrors() {
		return fmt.Errorf("invalid variable %q: %w", name, diags)
	}

	v := &config.Variable{
		Name:      name,
		Type:      cty.DynamicPseudoType,
		DeclRange: block.DefRange,
	}

	if attr, ok := content.Attributes["type"]; ok {
		ty, tyDiags := typeexpr.TypeConstraint(attr.Expr)
		if tyDiags.HasErrors() {
			return fmt.Errorf("invalid type for variable %q: %w", name, tyDiags)
		}
		v.Type = ty
	}

	if attr, ok := content.Attributes["default"]; ok {
		// Defaults must be literal values; no other bindings exist yet.
		val, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return fmt.Errorf("invalid default for variable %q: %w", name, valDiags)
		}
		v.Default = &val
	}

	for _, vb := range content.Blocks {
		validation, err := l.decodeValidation(vb, name)
		if err != nil {
			return err
		}
		v.Validations = append(v.Validations, validation)
	}

	model.Variables[name] = v
	return nil
}

// decodeValidation translates one validation block inside a variable block.
func (l *Loader) decodeValidation(block *hcl.Block, variable string) (*config.Validation, error) {
	content, diags := block.Body.Content(validationSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid validation for variable %q: %w", variable, diags)
	}

	msgVal, msgDiags := content.Attributes["error_message"].Expr.Value(nil)
	if msgDiags.HasErrors() || msgVal.Type() != cty.String {
		return nil, &evalerr.ConfigError{
			Subject: fmt.Sprintf("variable %q", variable),
			Detail:  "validation error_message must be a literal string",
		}
	}

	return &config.Validation{
		Condition:    content.Attributes["condition"].Expr,
		ErrorMessage: msgVal.AsString(),
	}, nil
}

// decodeLocals translates one locals block. Every attribute becomes one
// named local value.
func (l *Loader) decodeLocals(block *hcl.Block, model *config.Model) error {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("invalid locals block: %w", diags)
	}

	for name, attr := range attrs {
		if _, exists := model.Locals[name]; exists {
			return &evalerr.ConfigError{
				Subject: fmt.Sprintf("local %q", name),
				Detail:  "declared more than once",
			}
		}
		model.Locals[name] = &config.Local{
			Name:      name,
			Expr:      attr.Expr,
			DeclRange: attr.Range,
		}
	}
	return nil
}

// decodeResource translates one resource or data block.
func (l *Loader) decodeResource(block *hcl.Block, mode addr.Mode, model *config.Model) error {
	r := &config.Resource{
		Mode:       mode,
		Type:       block.Labels[0],
		Name:       block.Labels[1],
		Attributes: make(map[string]hcl.Expression),
		DeclRange:  block.DefRange,
	}

	if existing := model.ResourceByAddr(r.Addr()); existing != nil {
		return &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  "declared more than once",
		}
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("invalid block %s: %w", r.Addr(), diags)
	}

	for name, attr := range attrs {
		switch name {
		case "count":
			r.Count = attr.Expr
		case "for_each":
			r.ForEach = attr.Expr
		case "depends_on":
			refs, err := decodeDependsOn(attr.Expr, r.Addr())
			if err != nil {
				return err
			}
			r.DependsOn = refs
		default:
			r.Attributes[name] = attr.Expr
		}
	}

	// count and for_each are mutually exclusive: the two produce
	// incompatible instance key spaces.
	if r.Count != nil && r.ForEach != nil {
		return &evalerr.ConfigError{
			Subject: r.Addr().String(),
			Detail:  "count and for_each cannot be used together",
		}
	}

	model.Resources = append(model.Resources, r)
	return nil
}

// decodeDependsOn requires a list literal of static references, e.g.
// `depends_on = [aws_vpc.main, data.aws_ami.ubuntu]`.
func decodeDependsOn(expr hcl.Expression, subject addr.Resource) ([]hcl.Traversal, error) {
	exprs, diags := hcl.ExprList(expr)
	if diags.HasErrors() {
		return nil, &evalerr.ConfigError{
			Subject: subject.String(),
			Detail:  "depends_on must be a list of resource references",
		}
	}

	refs := make([]hcl.Traversal, 0, len(exprs))
	for _, e := range exprs {
		traversal, travDiags := hcl.AbsTraversalForExpr(e)
		if travDiags.HasErrors() {
			return nil, &evalerr.ConfigError{
				Subject: subject.String(),
				Detail:  "depends_on entries must be static references",
			}
		}
		refs = append(refs, traversal)
	}
	return refs, nil
}

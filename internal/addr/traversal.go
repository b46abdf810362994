package addr

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// TraversalString formats an expression traversal back into source-like
// form, e.g. `aws_subnet.web[2].id`, for error messages that point at a
// reference.
func TraversalString(traversal hcl.Traversal) string {
	var out string
	for _, step := range traversal {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			out += s.Name
		case hcl.TraverseAttr:
			out += "." + s.Name
		case hcl.TraverseIndex:
			switch s.Key.Type() {
			case cty.String:
				out += fmt.Sprintf("[%q]", s.Key.AsString())
			case cty.Number:
				n, _ := s.Key.AsBigFloat().Int64()
				out += fmt.Sprintf("[%d]", n)
			default:
				out += "[?]"
			}
		}
	}
	return out
}

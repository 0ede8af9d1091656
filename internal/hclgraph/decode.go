package hclgraph

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decodeConfig evaluates attrs and stores each into the field of cfg carrying
// the matching `cty` tag. Fields without an attribute keep their defaults.
// cfg is a pointer to a struct, or nil for kinds without config.
func decodeConfig(attrs hcl.Attributes, ectx *hcl.EvalContext, cfg any) error {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	if cfg == nil {
		if len(names) > 0 {
			return fmt.Errorf("unsupported attribute %q", names[0])
		}
		return nil
	}

	v := reflect.ValueOf(cfg).Elem()
	fields := make(map[string]int)
	for i := range v.NumField() {
		if tag := v.Type().Field(i).Tag.Get("cty"); tag != "" {
			fields[tag] = i
		}
	}

	for _, name := range names {
		attr := attrs[name]
		idx, ok := fields[name]
		if !ok {
			return fmt.Errorf("%s: unsupported attribute %q", attr.Range, name)
		}
		val, diags := attr.Expr.Value(ectx)
		if diags.HasErrors() {
			return fmt.Errorf("attribute %q: %w", name, diags)
		}

		field := v.Field(idx)
		want, err := gocty.ImpliedType(field.Interface())
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		converted, err := convert.Convert(val, want)
		if err != nil {
			return fmt.Errorf("%s: attribute %q: %w", attr.Range, name, err)
		}
		if err := gocty.FromCtyValue(converted, field.Addr().Interface()); err != nil {
			return fmt.Errorf("%s: attribute %q: %w", attr.Range, name, err)
		}
	}
	return nil
}

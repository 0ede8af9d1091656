package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/pulsegraph/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry checks every kind for internal consistency: later outputs
// must be declared outputs, and config structs must map onto cty types.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Kinds() {
		k := r.kinds[name]
		if k.New == nil {
			errs = append(errs, fmt.Sprintf("kind '%s': no constructor", name))
		}

		outputs := make(map[string]struct{}, len(k.Outputs))
		for _, o := range k.Outputs {
			outputs[o] = struct{}{}
		}
		for _, l := range k.Later {
			if _, ok := outputs[l]; !ok {
				errs = append(errs, fmt.Sprintf("kind '%s': later output '%s' is not a declared output", name, l))
			}
		}

		if k.NewConfig == nil {
			continue
		}
		cfg := k.NewConfig()
		cfgType := reflect.TypeOf(cfg)
		if cfgType == nil || cfgType.Kind() != reflect.Pointer || cfgType.Elem().Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("kind '%s': NewConfig must return a pointer to a struct, got %v", name, cfgType))
			continue
		}

		impliedType, err := gocty.ImpliedType(reflect.ValueOf(cfg).Elem().Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("kind '%s': could not imply cty type from config struct %s: %v", name, cfgType.Elem(), err))
			continue
		}
		if !impliedType.IsObjectType() {
			errs = append(errs, fmt.Sprintf("kind '%s': config struct must imply an object type, got %s", name, impliedType.FriendlyName()))
			continue
		}
		for attr, t := range impliedType.AttributeTypes() {
			if t.Equals(cty.DynamicPseudoType) {
				logger.Warn("Kind config has an attribute of type 'any', which disables type checking.", "kind", name, "attribute", attr)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

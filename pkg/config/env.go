package config

import (
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// environment exposes the process environment to HCL presets as an object
func environment() cty.Value {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

// Package functions collects the builtin automation modules.
package functions

import (
	"github.com/prashantdagar001/automation-api/functions/apps"
	"github.com/prashantdagar001/automation-api/functions/shell"
	"github.com/prashantdagar001/automation-api/functions/sysinfo"
	"github.com/prashantdagar001/automation-api/registry"
)

var builtins = []registry.Module{
	apps.Module,
	sysinfo.Module,
	shell.Module,
}

// Builtins returns every compiled-in module in registration order.
func Builtins() []registry.Module {
	return append([]registry.Module(nil), builtins...)
}

// Lookup resolves a builtin module by name. It satisfies
// registry.ModuleResolver for the compiled-in set; MCP-backed modules are
// layered on top of it at wiring time.
func Lookup(name string) (registry.Module, bool) {
	for _, module := range builtins {
		if module.Name() == name {
			return module, true
		}
	}
	return nil, false
}

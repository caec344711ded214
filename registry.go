package isqlite

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iafisher/isqlite/schema"
)

// registry holds the process-wide set of named schema builders. A Go
// program has no dynamically-loaded module to point the CLI at, so
// cmd/isqlite resolves "<schema-name>" arguments against whatever the
// host program registered in its own init().
var registry = struct {
	mu    sync.Mutex
	build map[string]func() (*schema.Schema, error)
}{build: make(map[string]func() (*schema.Schema, error))}

// RegisterSchema makes a named schema builder available to cmd/isqlite
// (and any other caller resolving schemas by name). Call it from an
// init() function; registering the same name twice panics, matching the
// fail-fast convention of sql.Register and similar driver registries.
func RegisterSchema(name string, build func() (*schema.Schema, error)) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.build[name]; exists {
		panic(fmt.Sprintf("isqlite: schema %q already registered", name))
	}
	registry.build[name] = build
}

// LookupSchema resolves a schema previously registered with
// RegisterSchema.
func LookupSchema(name string) (func() (*schema.Schema, error), bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	build, ok := registry.build[name]
	return build, ok
}

// RegisteredSchemaNames lists every registered schema name, sorted, for
// CLI help output and error messages.
func RegisteredSchemaNames() []string {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	names := make([]string, 0, len(registry.build))
	for name := range registry.build {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

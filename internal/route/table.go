package route

import (
	"errors"
	"fmt"
	"sort"

	"github.com/deppfellow/fleet-gateway/internal/validation"
)

// ErrRouteNotFound is returned by Resolve when nothing matches.
var ErrRouteNotFound = errors.New("route not found")

// Table is the startup-built route and schema registry.
type Table struct {
	routes  map[string]*Route
	order   []*Route
	schemas map[string]*validation.Schema
}

func key(method string, segments []string) string {
	return method + " " + JoinPath(segments)
}

// NewTable validates schemas and routes together and builds the table.
//
// It fails when:
//   - a schema is inconsistent (see validation.Schema.Check) or named twice
//   - a schema is not a well-formed JSON Schema document
//   - a route has an unknown method, an empty path, or a bad parameter
//   - a route references a schema that does not exist
//   - two routes share the same method and path
//
// Every problem found is reported in the returned error.
func NewTable(schemas []validation.Schema, routes []Route) (*Table, error) {
	t := &Table{
		routes:  make(map[string]*Route, len(routes)),
		schemas: make(map[string]*validation.Schema, len(schemas)),
	}

	var problems []error

	for i := range schemas {
		s := schemas[i]
		if err := s.Check(); err != nil {
			problems = append(problems, err)
			continue
		}
		if _, dup := t.schemas[s.Name]; dup {
			problems = append(problems, fmt.Errorf("schema %q declared twice", s.Name))
			continue
		}
		if _, err := s.Compile(); err != nil {
			problems = append(problems, err)
			continue
		}
		t.schemas[s.Name] = &s
	}

	for i := range routes {
		if err := t.register(routes[i]); err != nil {
			problems = append(problems, err)
		}
	}

	if err := errors.Join(problems...); err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}

	return t, nil
}

func (t *Table) register(r Route) error {
	r.Method = NormalizeMethod(r.Method)
	r.Path = append([]string(nil), r.Path...)
	r.Parameters = append([]Parameter(nil), r.Parameters...)

	if !knownMethods[r.Method] {
		return fmt.Errorf("route %s: unknown method %q", r.String(), r.Method)
	}
	if len(r.Path) == 0 {
		return fmt.Errorf("route %s: empty path", r.String())
	}
	for _, segment := range r.Path {
		if segment == "" {
			return fmt.Errorf("route %s: empty path segment", r.String())
		}
	}
	if r.Schema != "" {
		if _, ok := t.schemas[r.Schema]; !ok {
			return fmt.Errorf("route %s: unknown schema %q", r.String(), r.Schema)
		}
	}
	for _, p := range r.Parameters {
		if p.Name == "" || (p.In != InQueryString && p.In != InHeader) {
			return fmt.Errorf("route %s: invalid parameter %q in %q", r.String(), p.Name, p.In)
		}
	}

	k := key(r.Method, r.Path)
	if _, dup := t.routes[k]; dup {
		return fmt.Errorf("route %s registered twice", r.String())
	}

	t.routes[k] = &r
	t.order = append(t.order, &r)
	return nil
}

// Resolve returns the route whose method and full path equal the request's.
func (t *Table) Resolve(method, path string) (*Route, error) {
	r, ok := t.routes[key(NormalizeMethod(method), SplitPath(path))]
	if !ok {
		return nil, ErrRouteNotFound
	}
	return r, nil
}

// Schema returns the named schema.
func (t *Table) Schema(name string) (*validation.Schema, bool) {
	s, ok := t.schemas[name]
	return s, ok
}

// Routes lists the routes in registration order.
func (t *Table) Routes() []*Route {
	return append([]*Route(nil), t.order...)
}

// SchemaNames lists the schema names, sorted.
func (t *Table) SchemaNames() []string {
	names := make([]string, 0, len(t.schemas))
	for name := range t.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len is the number of registered routes.
func (t *Table) Len() int {
	return len(t.order)
}

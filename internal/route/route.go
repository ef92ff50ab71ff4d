// Package route holds the immutable table that maps (method, path) to the
// request model and validation flags of an endpoint.
//
// The table is built once at startup from a Catalog and never mutated, so
// concurrent requests read it without locking.
package route

import (
	"net/http"
	"strings"
)

// ParameterLocation says where a required request parameter is looked up.
type ParameterLocation string

const (
	InQueryString ParameterLocation = "querystring"
	InHeader      ParameterLocation = "header"
)

// Parameter is a request parameter that must be present when the route
// validates parameters.
type Parameter struct {
	Name string            `yaml:"name"`
	In   ParameterLocation `yaml:"in"`
}

// Key is the field name reported when the parameter is missing,
// e.g. "querystring.page".
func (p Parameter) Key() string {
	return string(p.In) + "." + p.Name
}

// Route binds a method and an exact path to an optional schema.
type Route struct {
	Method             string
	Path               []string
	Schema             string
	ValidateBody       bool
	ValidateParameters bool
	Parameters         []Parameter
}

// Pattern renders the route path, e.g. "/user/update".
func (r *Route) Pattern() string {
	return JoinPath(r.Path)
}

// String renders "METHOD /path".
func (r *Route) String() string {
	return r.Method + " " + r.Pattern()
}

// SplitPath breaks a request path into segments. One leading and one
// trailing slash are ignored, so "/user/update/" and "/user/update" are the
// same path. Interior empty segments are kept: "/user//update" yields an
// empty segment and matches no route.
func SplitPath(path string) []string {
	path = strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// JoinPath is the inverse of SplitPath.
func JoinPath(segments []string) string {
	return "/" + strings.Join(segments, "/")
}

// NormalizeMethod upper-cases a method name.
func NormalizeMethod(method string) string {
	return strings.ToUpper(strings.TrimSpace(method))
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Package validation checks request bodies against named schemas before a
// request is handed to the backend.
//
// A Schema is a flat object model: an ordered list of typed properties and a
// list of required fields. Validate is a pure function of a schema and a
// decoded JSON value and reports every violation as a (field, kind) pair that
// the client can act on.
package validation

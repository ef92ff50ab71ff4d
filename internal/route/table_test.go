package route_test

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/deppfellow/fleet-gateway/internal/route"
	"github.com/deppfellow/fleet-gateway/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signInSchema() validation.Schema {
	return validation.Schema{
		Name: "SignInUserModel",
		Properties: []validation.Property{
			{Name: "email", Type: validation.TypeString},
			{Name: "password", Type: validation.TypeString},
		},
		Required: []string{"email", "password"},
	}
}

func TestTable_Resolve(t *testing.T) {
	table, err := route.NewTable(
		[]validation.Schema{signInSchema()},
		[]route.Route{
			{Method: http.MethodPost, Path: []string{"ping"}},
			{Method: http.MethodPost, Path: []string{"user", "signin"}, Schema: "SignInUserModel", ValidateBody: true},
		},
	)
	require.NoError(t, err)

	tests := []struct {
		name    string
		method  string
		path    string
		want    string
		wantErr bool
	}{
		{"exact match", "POST", "/user/signin", "POST /user/signin", false},
		{"lowercase method", "post", "/ping", "POST /ping", false},
		{"trailing slash", "POST", "/user/signin/", "POST /user/signin", false},
		{"wrong method", "GET", "/user/signin", "", true},
		{"prefix only", "POST", "/user", "", true},
		{"longer path", "POST", "/user/signin/extra", "", true},
		{"unknown path", "POST", "/unknown/path", "", true},
		{"root", "POST", "/", "", true},
		{"empty interior segment", "POST", "/user//signin", "", true},
		{"doubled leading slash", "POST", "//user/signin", "", true},
		{"doubled trailing slash", "POST", "/user/signin//", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := table.Resolve(tt.method, tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, route.ErrRouteNotFound))
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.String())
		})
	}
}

func TestNewTable_RejectsDuplicateRoutes(t *testing.T) {
	_, err := route.NewTable(nil, []route.Route{
		{Method: "POST", Path: []string{"ping"}},
		{Method: "post", Path: []string{"ping"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "POST /ping registered twice")
}

func TestNewTable_RejectsUnknownSchema(t *testing.T) {
	_, err := route.NewTable(nil, []route.Route{
		{Method: "POST", Path: []string{"user", "signin"}, Schema: "SignInUserModel"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown schema "SignInUserModel"`)
}

func TestNewTable_RejectsBadRoutes(t *testing.T) {
	_, err := route.NewTable(nil, []route.Route{
		{Method: "FETCH", Path: []string{"ping"}},
		{Method: "POST"},
		{Method: "POST", Path: []string{"x"}, Parameters: []route.Parameter{{Name: "page", In: "cookie"}}},
		{Method: "POST", Path: []string{"user", "", "signin"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown method "FETCH"`)
	assert.Contains(t, err.Error(), "empty path")
	assert.Contains(t, err.Error(), `invalid parameter "page"`)
	assert.Contains(t, err.Error(), "empty path segment")
}

func TestNewTable_RejectsDuplicateSchemas(t *testing.T) {
	_, err := route.NewTable([]validation.Schema{signInSchema(), signInSchema()}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `schema "SignInUserModel" declared twice`)
}

func TestNewTable_CopiesInput(t *testing.T) {
	routes := []route.Route{{Method: "POST", Path: []string{"ping"}}}
	table, err := route.NewTable(nil, routes)
	require.NoError(t, err)

	routes[0].Path[0] = "pong"

	_, err = table.Resolve("POST", "/ping")
	assert.NoError(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	table, err := route.Load("")
	require.NoError(t, err)

	assert.Equal(t, 8, table.Len())

	want := map[string]string{
		"/ping":             "",
		"/user/update":      "UpdateUserModel",
		"/user/signin":      "SignInUserModel",
		"/truck/update":     "UpdateTruckModel",
		"/truck/search":     "SearchTrucksModel",
		"/reservation/list": "ListReservationsModel",
		"/reservation/book": "BookReservationModel",
		"/reset":            "ResetModel",
	}
	for path, schema := range want {
		r, err := table.Resolve(http.MethodPost, path)
		require.NoError(t, err, path)
		assert.Equal(t, schema, r.Schema, path)
		assert.Equal(t, schema != "", r.ValidateBody, path)
	}

	book, ok := table.Schema("BookReservationModel")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"vin", "startTime", "endTime", "email", "type"}, book.Required)

	update, ok := table.Schema("UpdateUserModel")
	require.True(t, ok)
	assert.False(t, update.IsRequired("adminKey"))
}

func TestCatalog_RejectsRequiredFieldsOutsideProperties(t *testing.T) {
	catalog, err := route.ParseCatalog([]byte(`
models:
  - name: BookReservationModel
    properties:
      - { name: vin, type: string }
      - { name: startTime, type: number }
      - { name: endTime, type: number }
    required: [vin, startDate, endDate]
routes:
  - { method: POST, path: /reservation/book, model: BookReservationModel, validateBody: true }
`))
	require.NoError(t, err)

	_, err = catalog.Table()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required field "startDate" is not a declared property`)
	assert.Contains(t, err.Error(), `required field "endDate" is not a declared property`)
	assert.Contains(t, err.Error(), `unknown schema "BookReservationModel"`)
}

func TestParseCatalog_RejectsUnknownKeys(t *testing.T) {
	_, err := route.ParseCatalog([]byte(`
routes:
  - { method: POST, path: /ping, validateBdy: true }
`))
	assert.Error(t, err)
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
routes:
  - method: POST
    path: /ping
  - method: GET
    path: /reservation/export
    validateParameters: true
    parameters:
      - { name: email, in: querystring }
`), 0o600))

	table, err := route.Load(path)
	require.NoError(t, err)

	r, err := table.Resolve("GET", "/reservation/export")
	require.NoError(t, err)
	require.Len(t, r.Parameters, 1)
	assert.Equal(t, "querystring.email", r.Parameters[0].Key())

	_, err = route.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

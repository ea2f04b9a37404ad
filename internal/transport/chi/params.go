package chi

import (
	"net/http"

	"github.com/oapi-codegen/runtime"
)

// bindQuery binds a form-style query parameter into dest.
func bindQuery(r *http.Request, name string, required bool, dest any) error {
	return runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest)
}

// queryString reads an optional string parameter, writing a 400 on failure.
func queryString(w http.ResponseWriter, r *http.Request, name string, required bool) (string, bool) {
	var v string
	if err := bindQuery(r, name, required, &v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return "", false
	}
	return v, true
}

// queryInt reads an optional integer parameter, writing a 400 on failure.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	var v int
	if err := bindQuery(r, name, false, &v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return 0, false
	}
	return v, true
}

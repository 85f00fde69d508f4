package helpers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Validator is the self-validation hook for request DTOs. Validate returns
// the list of problems found; an empty (or nil) list means the DTO is usable.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate reads the JSON request body into dest, rejecting unknown
// fields, and runs the DTO's Validate hook when present. Any decode or
// validation problem is answered with a 400 envelope and a false return, so
// handlers bail with a bare `return` on false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return false
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

// actorOrUnauthorized writes 401 when the request carries no authenticated caller.
func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (user.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
	}
	return actor, ok
}

// decodeJSON reads the body into dst. An empty body is accepted when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	slog.WarnContext(r.Context(), "request decode error", "path", r.URL.Path, "error", err)
	response.BadRequest(w, "Invalid request format", nil)
	return false
}

// queryInts parses the named integer query parameters. Missing ones stay nil.
func queryInts(r *http.Request, names ...string) (map[string]*int, error) {
	var errs validator.ValidationErrors
	values := make(map[string]*int, len(names))
	for _, name := range names {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			values[name] = nil
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs.Add(name, name+" must be a number")
			continue
		}
		values[name] = &n
	}
	return values, errs.Err()
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func queryString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}

// formFloats parses the named decimal form fields. Missing ones stay nil.
func formFloats(r *http.Request, names ...string) (map[string]*float64, error) {
	var errs validator.ValidationErrors
	values := make(map[string]*float64, len(names))
	for _, name := range names {
		raw := r.FormValue(name)
		if raw == "" {
			values[name] = nil
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs.Add(name, name+" must be a number")
			continue
		}
		values[name] = &f
	}
	return values, errs.Err()
}

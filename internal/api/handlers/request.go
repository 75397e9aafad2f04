package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/inkwell-be/internal/auth"
	"github.com/isdelr/inkwell-be/internal/services"
)

// principal returns the caller, or the zero principal for anonymous requests.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// pageRequest reads the page and limit query parameters. Absent parameters select the first page;
// page=0&limit=0 asks for everything.
func pageRequest(r *http.Request) (services.PageRequest, error) {
	req := services.PageRequest{Page: 1}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, services.NewError(services.KindValidation, "page must be a non-negative integer.")
		}
		req.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, services.NewError(services.KindValidation, "limit must be a non-negative integer.")
		}
		req.Limit = n
	}
	return req, nil
}

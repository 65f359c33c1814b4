package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ukydev/fleet-lifecycle/internal/aggregate"
	"github.com/ukydev/fleet-lifecycle/internal/apperr"
)

// dateRange reads from/to. Both absent yields nil, meaning all history.
func dateRange(r *http.Request) (*aggregate.DateRange, error) {
	q := r.URL.Query()
	return aggregate.ParseRange(q.Get("from"), q.Get("to"))
}

// listParam reads a parameter given repeatedly or comma separated.
func listParam(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.Invalid(key, "%q is not a boolean", v)
	}
	return b, nil
}

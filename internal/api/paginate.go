package api

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// parsePagination extracts limit and offset from query parameters.
// limit defaults to 50 and is silently capped at 200. Values that are not
// non-negative integers (or a zero limit) are rejected.
func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultLimit

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", l)
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		offset, err = strconv.Atoi(o)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", o)
		}
	}

	return limit, offset, nil
}

// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadPage is returned by ParsePage for non-numeric or negative input.
var ErrBadPage = errors.New("limit and offset must be non-negative integers")

// Page is a parsed limit/offset pair.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads raw limit/offset query values. Empty values take the
// defaults (defLimit, 0); a zero limit also means defLimit; limits above
// maxLimit are capped. Malformed or negative values yield ErrBadPage.
func ParsePage(rawLimit, rawOffset string, defLimit, maxLimit int) (Page, error) {
	p := Page{Limit: defLimit}

	if s := strings.TrimSpace(rawLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Page{}, ErrBadPage
		}
		if n > 0 {
			p.Limit = n
		}
	}
	if s := strings.TrimSpace(rawOffset); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return Page{}, ErrBadPage
		}
		p.Offset = n
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p, nil
}

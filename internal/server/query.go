package server

import (
	"net/url"
	"strconv"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/projection"
)

// Canvas sizes accepted from clients.
const (
	minSize = 100
	maxSize = 4096
)

func parseOpenQuery(position string, q url.Values) (createRequest, error) {
	req := createRequest{Position: position}
	if k := q.Get("k"); k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n < 0 {
			return req, errors.New(errors.ErrCodeInvalidInput, "invalid k %q", k)
		}
		req.Groups = n
	}
	if h := q.Get("highlight"); h != "" {
		ids, err := projection.ParseIDs(h)
		if err != nil {
			return req, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid highlight")
		}
		req.Highlight = ids.Sorted()
	}
	return req, nil
}

// parseSize reads w and h. Both must be present and within bounds.
func parseSize(q url.Values) (float64, float64, bool) {
	w, err1 := strconv.ParseFloat(q.Get("w"), 64)
	h, err2 := strconv.ParseFloat(q.Get("h"), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return clampSize(w), clampSize(h), true
}

func clampSize(v float64) float64 {
	return max(minSize, min(maxSize, v))
}

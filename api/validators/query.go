package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/pagination"
)

// ListQuery holds the raw donation list filters. Status and mine are checked
// by the donation service, which owns their vocabularies.
type ListQuery struct {
	Status string
	Mine   string
	Cursor string
	Limit  int
}

// ParseListQuery reads ?status, ?mine, ?cursor and ?limit. An absent or zero
// limit means every row.
func ParseListQuery(r *http.Request) (ListQuery, error) {
	query := r.URL.Query()
	limit, err := parseLimit(query.Get("limit"))
	if err != nil {
		return ListQuery{}, err
	}
	return ListQuery{
		Status: strings.TrimSpace(query.Get("status")),
		Mine:   strings.TrimSpace(query.Get("mine")),
		Cursor: strings.TrimSpace(query.Get("cursor")),
		Limit:  limit,
	}, nil
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > pagination.MaxLimit {
		msg := fmt.Sprintf("Field 'limit' must be a whole number between 0 and %d", pagination.MaxLimit)
		return 0, pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]string{"limit": msg})
	}
	return limit, nil
}

// Package query turns list-endpoint query parameters into a filter, sort and
// page window that the store backends execute at the database level.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"gamehub/backend/internal/apperr"
	"gamehub/backend/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Resource describes how one collection may be sorted.
type Resource struct {
	Name         string
	DefaultSort  string
	DefaultOrder Order
	SortFields   []string
}

// Sortable reports whether field may be used as sortField.
func (r Resource) Sortable(field string) bool {
	for _, f := range r.SortFields {
		if f == field {
			return true
		}
	}
	return false
}

var (
	Games = Resource{
		Name:         "games",
		DefaultSort:  "title",
		DefaultOrder: Asc,
		SortFields:   []string{"title", "releaseDate", "createdAt", "updatedAt", "averageRating", "reviewCount"},
	}
	Reviews = Resource{
		Name:         "reviews",
		DefaultSort:  "createdAt",
		DefaultOrder: Desc,
		SortFields:   []string{"createdAt", "updatedAt", "rating", "title"},
	}
	Users = Resource{
		Name:         "users",
		DefaultSort:  "createdAt",
		DefaultOrder: Desc,
		SortFields:   []string{"createdAt", "updatedAt", "username"},
	}
	// TrackedGames sorts on "title" use the joined game's title.
	TrackedGames = Resource{
		Name:         "trackedGames",
		DefaultSort:  "createdAt",
		DefaultOrder: Desc,
		SortFields:   []string{"createdAt", "updatedAt", "status", "title"},
	}
)

// List is a parsed list request. Zero-valued filters are not applied.
type List struct {
	Page      int
	Limit     int
	SortField string
	Order     Order

	Search    string
	Genre     string
	Platform  string
	Status    models.Status
	MinRating *float64
	MaxRating *float64
}

// Skip returns the number of rows before the requested page.
func (l List) Skip() int {
	return (l.Page - 1) * l.Limit
}

// Ascending reports whether the sort direction is ascending.
func (l List) Ascending() bool {
	return l.Order == Asc
}

// Default returns the first page of r with default sorting.
func Default(r Resource) List {
	return List{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortField: r.DefaultSort,
		Order:     r.DefaultOrder,
	}
}

// Parse builds a List for resource r from query parameters.
func Parse(values url.Values, r Resource) (List, error) {
	l := Default(r)
	l.Page = positiveInt(values.Get("page"), DefaultPage)
	l.Limit = positiveInt(values.Get("limit"), DefaultLimit)
	if l.Limit > MaxLimit {
		l.Limit = MaxLimit
	}

	if field := strings.TrimSpace(values.Get("sortField")); field != "" {
		if !r.Sortable(field) {
			return List{}, apperr.Validationf("sortField must be one of: %s", strings.Join(r.SortFields, ", "))
		}
		l.SortField = field
	}

	switch Order(strings.ToLower(strings.TrimSpace(values.Get("sortOrder")))) {
	case Asc:
		l.Order = Asc
	case Desc:
		l.Order = Desc
	}

	l.Search = strings.TrimSpace(values.Get("search"))
	l.Genre = strings.TrimSpace(values.Get("genre"))
	l.Platform = strings.TrimSpace(values.Get("platform"))

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status := models.Status(raw)
		if !status.Valid() {
			return List{}, apperr.Validation("status must be one of: Owned, Wishlisted, Unowned, Blacklisted")
		}
		l.Status = status
	}

	var err error
	if l.MinRating, err = optionalFloat(values, "minRating"); err != nil {
		return List{}, err
	}
	if l.MaxRating, err = optionalFloat(values, "maxRating"); err != nil {
		return List{}, err
	}
	if l.MinRating != nil && l.MaxRating != nil && *l.MinRating > *l.MaxRating {
		return List{}, apperr.Validation("minRating cannot be greater than maxRating")
	}

	return l, nil
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func optionalFloat(values url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.Validationf("%s must be a number", key)
	}
	return &f, nil
}

// Package repository exposes one typed operation per backend resource on top
// of the transport client.
package repository

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/JAlbrecht-svg/inkasso-console/internal/model"
	"github.com/JAlbrecht-svg/inkasso-console/internal/transport"
)

// DefaultLimit is the page size used when a filter leaves Limit unset.
const DefaultLimit = 50

// Doer performs one request against the backend. *transport.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body any, dec transport.Decoder) error
}

// Repository is the entity facade used by the controllers and the CLI.
type Repository struct {
	client Doer
}

// New wraps client.
func New(client Doer) *Repository {
	return &Repository{client: client}
}

// CaseFilter narrows ListCases. Zero values mean unconstrained.
type CaseFilter struct {
	Status    model.CaseStatus
	Search    string
	AuftragID string
	DebtorID  string
	Limit     int
	Offset    int
}

// Query renders the filter as query parameters, omitting every empty value.
func (f CaseFilter) Query() url.Values {
	q := url.Values{}
	setString(q, "status", string(f.Status))
	setString(q, "search", f.Search)
	setString(q, "auftragId", f.AuftragID)
	setString(q, "debtorId", f.DebtorID)
	setInt(q, "limit", f.Limit)
	setInt(q, "offset", f.Offset)
	return q
}

// DebtorFilter narrows ListDebtors.
type DebtorFilter struct {
	Search string
	Limit  int
	Offset int
}

// Query renders the filter as query parameters, omitting every empty value.
func (f DebtorFilter) Query() url.Values {
	q := url.Values{}
	setString(q, "search", f.Search)
	setInt(q, "limit", f.Limit)
	setInt(q, "offset", f.Offset)
	return q
}

func setString(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}

func setInt(q url.Values, key string, value int) {
	if value > 0 {
		q.Set(key, strconv.Itoa(value))
	}
}

func resource(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		if i%2 == 1 {
			p = url.PathEscape(p)
		}
		escaped[i] = p
	}
	return strings.Join(escaped, "/")
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return &model.ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

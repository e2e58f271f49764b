// Package catalog holds the fixed, ordered list of named report queries.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/db"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/db/sql"
)

// Querier is the connection handle every query function receives.
// *db.Connection implements it.
type Querier interface {
	Query(ctx context.Context, query string) (*db.ResultSet, error)
}

type QueryFunc func(ctx context.Context, q Querier) (*db.ResultSet, error)

type Entry struct {
	Name string
	// SQL is informational for static entries; Fn is what runs.
	SQL string
	Fn  QueryFunc
}

// Static binds a fixed SQL text to a name.
func Static(name, query string) Entry {
	query = strings.TrimSpace(query)
	return Entry{
		Name: name,
		SQL:  query,
		Fn: func(ctx context.Context, q Querier) (*db.ResultSet, error) {
			return q.Query(ctx, query)
		},
	}
}

// Catalog is an ordered list of uniquely named entries.
type Catalog struct {
	entries []Entry
}

// New validates entries and keeps them in the given order. Entries with SQL
// must be read-only queries.
func New(entries ...Entry) (*Catalog, error) {
	seen := make(map[string]struct{}, len(entries))

	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		if _, ok := seen[e.Name]; ok {
			return nil, fmt.Errorf("duplicate catalog entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		if e.Fn == nil {
			return nil, fmt.Errorf("catalog entry %q has no query function", e.Name)
		}
		if e.SQL != "" {
			qt, err := sql.Classify(e.SQL)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %q: %w", e.Name, err)
			}
			if !qt.IsSafe() {
				return nil, fmt.Errorf("catalog entry %q is %s, only read-only queries are allowed", e.Name, qt)
			}
		}
	}

	return &Catalog{entries: append([]Entry(nil), entries...)}, nil
}

func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Entries returns the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

func (c *Catalog) Get(name string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Select returns the named entries in catalog order, whatever the order of
// names. No names selects everything.
func (c *Catalog) Select(names ...string) (*Catalog, error) {
	if len(names) == 0 {
		return c, nil
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := c.Get(name); !ok {
			return nil, &UnknownQueryError{Name: name}
		}
		wanted[name] = struct{}{}
	}

	var picked []Entry
	for _, e := range c.entries {
		if _, ok := wanted[e.Name]; ok {
			picked = append(picked, e)
		}
	}
	return &Catalog{entries: picked}, nil
}

type UnknownQueryError struct {
	Name string
}

func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("unknown query %q", e.Name)
}

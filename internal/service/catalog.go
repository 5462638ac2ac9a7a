package service

import (
	"context"
	"fmt"
	"sync"

	"heater_server/internal/models"
	"heater_server/internal/repository"
)

// ValueCatalog is the value-type metadata, loaded once from the
// repository and effectively immutable afterwards. Only the logging
// flag has a mutation path (the admin logging-state operation).
type ValueCatalog struct {
	mu           sync.RWMutex
	descriptions map[int]models.ValueDescription
}

func NewValueCatalog() *ValueCatalog {
	return &ValueCatalog{descriptions: make(map[int]models.ValueDescription)}
}

// Load fetches all descriptions. A failure here leaves the catalog
// unusable; callers treat it as fatal.
func (c *ValueCatalog) Load(ctx context.Context, repo repository.Heater) error {
	descriptions, err := repo.GetAllValueDescriptions(ctx)
	if err != nil {
		return fmt.Errorf("load value descriptions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range descriptions {
		c.descriptions[d.ID] = d
	}
	return nil
}

// Get returns the description for id, if known.
func (c *ValueCatalog) Get(id int) (models.ValueDescription, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descriptions[id]
	return d, ok
}

// All returns a copy of the catalog.
func (c *ValueCatalog) All() map[int]models.ValueDescription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int]models.ValueDescription, len(c.descriptions))
	for id, d := range c.descriptions {
		out[id] = d
	}
	return out
}

// SetLogged updates the logging flag of a known value type.
func (c *ValueCatalog) SetLogged(id int, isLogged bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.descriptions[id]; ok {
		d.IsLogged = isLogged
		c.descriptions[id] = d
	}
}

// ErrorCatalog maps error ids to error texts. It is seeded at startup
// and grows when the heater reports a text that is not yet known.
type ErrorCatalog struct {
	mu     sync.Mutex
	errors map[int]models.ErrorDescription
}

func NewErrorCatalog() *ErrorCatalog {
	return &ErrorCatalog{errors: make(map[int]models.ErrorDescription)}
}

// Load seeds the catalog from the repository.
func (c *ErrorCatalog) Load(ctx context.Context, repo repository.Heater) error {
	errs, err := repo.GetAllErrors(ctx)
	if err != nil {
		return fmt.Errorf("load error descriptions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range errs {
		c.errors[e.ID] = e
	}
	return nil
}

// ResolveOrCreate returns the id for the given error text, inserting a
// new row on first sight. The lock spans the scan and the insert so two
// concurrent callers cannot both create a row for the same text.
func (c *ErrorCatalog) ResolveOrCreate(ctx context.Context, repo repository.Heater, text string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.errors {
		if e.Description == text {
			return id, nil
		}
	}

	id, err := repo.CreateError(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("create error %q: %w", text, err)
	}
	c.errors[id] = models.ErrorDescription{ID: id, Description: text}
	return id, nil
}

// All returns a copy of the catalog.
func (c *ErrorCatalog) All() map[int]models.ErrorDescription {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]models.ErrorDescription, len(c.errors))
	for id, e := range c.errors {
		out[id] = e
	}
	return out
}

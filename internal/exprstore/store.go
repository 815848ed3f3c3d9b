// Package exprstore persists named condition expressions so users can save
// and reuse them across sessions. Expressions are stored in their JSON wire
// form and validated through the condition parser on every write.
package exprstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okalita/spot-optimizer/internal/condition"
)

var (
	ErrNotFound      = errors.New("expression not found")
	ErrAlreadyExists = errors.New("expression already exists")
	ErrInvalidName   = errors.New("expression name cannot be empty")
)

// Expression is a saved, named condition in wire form.
type Expression struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is the persistence interface for saved expressions.
type Store interface {
	Get(id string) (*Expression, error)
	List() ([]*Expression, error)
	Add(expr *Expression) error
	Update(expr *Expression) error
	Delete(id string) error
}

// Validate checks the expression's shape: a name and a parseable condition.
func Validate(expr *Expression) error {
	if expr == nil {
		return fmt.Errorf("expression cannot be nil")
	}
	if expr.Name == "" {
		return ErrInvalidName
	}
	if _, err := condition.Parse(expr.Expression); err != nil {
		return err
	}
	return nil
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu          sync.RWMutex
	expressions map[string]*Expression
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expressions: make(map[string]*Expression),
	}
}

// Get retrieves an expression by ID.
func (s *MemoryStore) Get(id string) (*Expression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expr, exists := s.expressions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Return a copy to prevent external modification.
	copied := *expr
	return &copied, nil
}

// List retrieves all saved expressions.
func (s *MemoryStore) List() ([]*Expression, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Expression, 0, len(s.expressions))
	for _, expr := range s.expressions {
		copied := *expr
		out = append(out, &copied)
	}
	return out, nil
}

// Add stores a new expression.
func (s *MemoryStore) Add(expr *Expression) error {
	if err := Validate(expr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expressions[expr.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, expr.ID)
	}

	now := time.Now()
	if expr.CreatedAt.IsZero() {
		expr.CreatedAt = now
	}
	if expr.UpdatedAt.IsZero() {
		expr.UpdatedAt = now
	}

	copied := *expr
	s.expressions[expr.ID] = &copied
	return nil
}

// Update overwrites an existing expression, preserving its creation time.
func (s *MemoryStore) Update(expr *Expression) error {
	if err := Validate(expr); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.expressions[expr.ID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, expr.ID)
	}

	expr.CreatedAt = existing.CreatedAt
	expr.UpdatedAt = time.Now()

	copied := *expr
	s.expressions[expr.ID] = &copied
	return nil
}

// Delete removes an expression by ID.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expressions[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.expressions, id)
	return nil
}

package core

import (
	"encoding/json"
	"fmt"
	"sync"

	utils "grokparser/utils"
)

type (
	TableMapping  = map[string][]int
	ActionMapping = []utils.ActionSolution
)

// MappingCache is a JSON document hydrated from its Store on first use and
// written back whole after every mutation. The in-memory value is the only
// source of truth once loaded.
type MappingCache[T any] struct {
	mu     sync.Mutex
	store  Store
	indent string
	empty  func() T

	loaded bool
	value  T
}

func NewMappingCache[T any](store Store, indent string, empty func() T) *MappingCache[T] {
	return &MappingCache[T]{store: store, indent: indent, empty: empty}
}

// mapping.json is written compact, grok.json with two-space indentation.
func NewTableCache(store Store) *MappingCache[TableMapping] {
	return NewMappingCache(store, "", func() TableMapping { return TableMapping{} })
}

func NewActionCache(store Store) *MappingCache[ActionMapping] {
	return NewMappingCache(store, "  ", func() ActionMapping { return ActionMapping{} })
}

func (c *MappingCache[T]) load() error {
	if c.loaded {
		return nil
	}

	value := c.empty()
	data, ok, err := c.store.Load()
	if err != nil {
		return err
	}
	if ok && len(data) > 0 {
		if err := json.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("failed to decode cache: %w", err)
		}
	}

	c.value = value
	c.loaded = true
	return nil
}

// View runs fn against the hydrated value under the cache lock. fn must not
// retain references into the value.
func (c *MappingCache[T]) View(fn func(T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return err
	}
	fn(c.value)
	return nil
}

// Update mutates the value in place and persists the whole document.
func (c *MappingCache[T]) Update(fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(); err != nil {
		return err
	}
	fn(&c.value)
	return c.persist()
}

func (c *MappingCache[T]) persist() error {
	var (
		data []byte
		err  error
	)
	if c.indent != "" {
		data, err = json.MarshalIndent(c.value, "", c.indent)
	} else {
		data, err = json.Marshal(c.value)
	}
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	return c.store.Save(data)
}

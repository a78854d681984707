// Package keypath reads and edits nested JSON object trees addressed by a
// sequence of keys. The tree uses the shapes produced by encoding/json when
// decoding into any: map[string]any for objects.
package keypath

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a segment of the path does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrNotObject is returned when a path runs through a value that is not an object.
	ErrNotObject = errors.New("value is not an object")
	// ErrEmptyPath is returned by operations that need at least one key.
	ErrEmptyPath = errors.New("key path is empty")
)

// Split turns "a.b.c" into []string{"a", "b", "c"}. An empty string yields nil.
func Split(dotted string) []string {
	if strings.TrimSpace(dotted) == "" {
		return nil
	}
	return strings.Split(dotted, ".")
}

// Get walks keys from doc. An empty path returns doc itself.
func Get(doc any, keys []string) (any, bool) {
	current := doc
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := obj[key]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set assigns value at keys, creating intermediate objects that are absent.
// An intermediate that exists but is not an object is an error.
func Set(doc map[string]any, keys []string, value any) error {
	if len(keys) == 0 {
		return ErrEmptyPath
	}
	if doc == nil {
		return fmt.Errorf("%w: root", ErrNotObject)
	}

	current := doc
	for i, key := range keys[:len(keys)-1] {
		next, ok := current[key]
		if !ok || next == nil {
			created := make(map[string]any)
			current[key] = created
			current = created
			continue
		}
		obj, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotObject, strings.Join(keys[:i+1], "."))
		}
		current = obj
	}
	current[keys[len(keys)-1]] = value
	return nil
}

// Delete removes the final key of keys. Every intermediate segment, and the
// final key itself, must exist.
func Delete(doc map[string]any, keys []string) error {
	if len(keys) == 0 {
		return ErrEmptyPath
	}

	parent, ok := Get(doc, keys[:len(keys)-1])
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, strings.Join(keys[:len(keys)-1], "."))
	}
	obj, ok := parent.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotObject, strings.Join(keys[:len(keys)-1], "."))
	}
	last := keys[len(keys)-1]
	if _, exists := obj[last]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, strings.Join(keys, "."))
	}
	delete(obj, last)
	return nil
}

package stock

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientStock is the sentinel wrapped by ShortageError.
var ErrInsufficientStock = errors.New("insufficient stock")

// Item pairs a requested quantity with what the inventory collaborator reports as available.
type Item struct {
	Title     string `json:"title"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Short reports whether the request exceeds availability.
func (it Item) Short() bool { return it.Requested > it.Available }

// ShortageError lists every item whose request exceeds availability.
type ShortageError struct {
	Items []Item `json:"items"`
}

func (e *ShortageError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", it.Title, it.Requested, it.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *ShortageError) Unwrap() error { return ErrInsufficientStock }

// Check returns a *ShortageError naming all short items, or nil.
func Check(items []Item) error {
	var short []Item
	for _, it := range items {
		if it.Short() {
			short = append(short, it)
		}
	}
	if len(short) == 0 {
		return nil
	}
	return &ShortageError{Items: short}
}

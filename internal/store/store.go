package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iurnickita/ledger/internal/store/config"
)

// Store keeps named collections of records. A collection is read and
// rewritten in full; Modify serialises writers of the same collection.
type Store interface {
	// Read returns the raw content of a collection, ErrNotFound if it has
	// never been written.
	Read(ctx context.Context, name string) ([]byte, error)
	// Modify calls fn with the current content (nil if absent) while holding
	// the collection lock and writes back what fn returns. Nothing is
	// written when fn fails.
	Modify(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error
	Close() error
}

var (
	ErrNotFound  = errors.New("store not found")
	ErrMalformed = errors.New("store content is malformed")
)

func NewStore(cfg config.Config) (Store, error) {
	if cfg.DBDsn != "" {
		return newPGStore(cfg.DBDsn)
	}
	return newFileStore(cfg.Dir)
}

// LoadList reads a collection as a JSON list of T.
func LoadList[T any](ctx context.Context, s Store, name string) ([]T, error) {
	data, err := s.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	return decodeList[T](data)
}

// ModifyList runs fn over the decoded collection and stores the result.
// With lenient set, content that cannot be decoded counts as an empty list
// and gets replaced; otherwise ErrMalformed is returned.
func ModifyList[T any](ctx context.Context, s Store, name string, lenient bool, fn func(list []T) ([]T, error)) error {
	return s.Modify(ctx, name, func(current []byte) ([]byte, error) {
		var list []T
		if current != nil {
			var err error
			list, err = decodeList[T](current)
			if err != nil {
				if !lenient {
					return nil, err
				}
				list = nil
			}
		}

		list, err := fn(list)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []T{}
		}
		return json.MarshalIndent(list, "", "    ")
	})
}

func decodeList[T any](data []byte) ([]T, error) {
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return list, nil
}

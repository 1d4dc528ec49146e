package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/fincore-labs/finchat/internal/db"
)

// HSetMulti stores multiple hashes in a single DoMulti round-trip.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// DelPattern deletes all keys matching a pattern via SCAN + DEL.
// Returns the number of deleted keys.
func (s *Store) DelPattern(ctx context.Context, pattern string) (int, error) {
	var deleted int
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return deleted, &db.Error{Op: db.OpScan, Err: err}
		}

		if len(res.Elements) > 0 {
			del := s.b().Del().Key(res.Elements...).Build()
			if err := s.do(ctx, del).Error(); err != nil {
				return deleted, &db.Error{Op: db.OpDel, Err: err}
			}
			deleted += len(res.Elements)
		}

		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
)

// RunValueLogGC reclaims value log space left behind by deleted or replaced
// envelopes. It returns early when ctx is done.
func (s *Store) RunValueLogGC(ctx context.Context, discardRatio float64) error {
	resultCh := make(chan error, 1)
	go func() {
		err := s.db.RunValueLogGC(discardRatio)
		select {
		case resultCh <- err:
		case <-ctx.Done():
		}
	}()

	select {
	case err := <-resultCh:
		if err == nil || errors.Is(err, badgerdb.ErrNoRewrite) {
			return nil
		}
		// rejected while another gc or close is running
		if errors.Is(err, badgerdb.ErrRejected) || strings.Contains(err.Error(), "GC request rejected") {
			return nil
		}
		return fmt.Errorf("value log gc: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("value log gc cancelled: %w", ctx.Err())
	}
}

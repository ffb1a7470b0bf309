package scraper

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const guardSize = 64

// pageGuard remembers fingerprints of full pages seen during one fetch.
type pageGuard struct {
	seen *lru.Cache[uint64, int]
}

func newPageGuard(size int) (*pageGuard, error) {
	cache, err := lru.New[uint64, int](size)
	if err != nil {
		return nil, fmt.Errorf("create page guard: %w", err)
	}
	return &pageGuard{seen: cache}, nil
}

// check records body as fetched at offset and fails if an identical body was
// already returned for a different offset.
func (g *pageGuard) check(offset int, body []byte) error {
	sum := xxhash.Sum64(body)
	if prev, ok := g.seen.Get(sum); ok && prev != offset {
		return fmt.Errorf("%w: offset %d matches offset %d", ErrRepeatedPage, offset, prev)
	}
	g.seen.Add(sum, offset)
	return nil
}

func (g *pageGuard) reset() {
	g.seen.Purge()
}

package operations

import (
	"sync"
	"time"
)

const DefaultBoardRefresh = 5 * time.Second

// Board is one aggregated booth board. Groups keeps the visit group behind
// each active card, keyed by table id, so single order updates can be
// re-summarized without another load.
type Board struct {
	BoothID  int64
	Cards    []Card
	Groups   map[int64][]OrderDetail
	LoadedAt time.Time
}

// BoardCache holds the latest board per booth for the refresh interval.
// Invalidate bumps a per-booth generation so a load that started before the
// invalidation cannot store its stale result.
type BoardCache struct {
	mu     sync.RWMutex
	boards map[int64]*Board
	gens   map[int64]uint64
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
}

func NewBoardCache(ttl time.Duration, loc *time.Location) *BoardCache {
	if ttl <= 0 {
		ttl = DefaultBoardRefresh
	}
	if loc == nil {
		loc = time.Local
	}
	return &BoardCache{
		boards: make(map[int64]*Board),
		gens:   make(map[int64]uint64),
		ttl:    ttl,
		loc:    loc,
		now:    time.Now,
	}
}

// Get returns a copy of the cached cards while they are fresh.
func (c *BoardCache) Get(boothID int64) ([]Card, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	board, ok := c.boards[boothID]
	if !ok || c.now().Sub(board.LoadedAt) >= c.ttl {
		return nil, false
	}
	return copyCards(board.Cards), true
}

func (c *BoardCache) Generation(boothID int64) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[boothID]
}

// Put stores board unless the booth was invalidated after gen was read.
func (c *BoardCache) Put(board *Board, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[board.BoothID] != gen {
		return false
	}
	c.boards[board.BoothID] = board
	return true
}

func (c *BoardCache) Invalidate(boothID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(boothID)
}

// InvalidateTable drops every cached board showing tableID.
func (c *BoardCache) InvalidateTable(tableID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for boothID, board := range c.boards {
		for _, card := range board.Cards {
			if card.TableID == tableID {
				c.invalidateLocked(boothID)
				break
			}
		}
	}
}

// InvalidateOrder drops the cached board holding orderID.
func (c *BoardCache) InvalidateOrder(orderID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if board, _, _ := c.findOrderLocked(orderID); board != nil {
		c.invalidateLocked(board.BoothID)
	}
}

func (c *BoardCache) invalidateLocked(boothID int64) {
	delete(c.boards, boothID)
	c.gens[boothID]++
}

// ProjectStatus applies status to the cached copy of orderID and
// re-summarizes its card. The returned func restores the previous card when
// the same board is still cached; it is a no-op when nothing was projected.
func (c *BoardCache) ProjectStatus(orderID int64, status string) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	board, tableID, pos := c.findOrderLocked(orderID)
	if board == nil {
		return func() {}
	}

	cardIdx := -1
	for i, card := range board.Cards {
		if card.TableID == tableID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return func() {}
	}

	prevGroup := board.Groups[tableID]
	prevCard := board.Cards[cardIdx]

	group := make([]OrderDetail, len(prevGroup))
	copy(group, prevGroup)
	group[pos].CustomerOrder.Status = status

	summary, err := Summarize(group, c.loc)
	if err != nil {
		return func() {}
	}
	card := summary.Card(Table{TableID: prevCard.TableID, TableNumber: prevCard.TableNo})
	board.Groups[tableID] = group
	board.Cards[cardIdx] = card

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.boards[board.BoothID] != board {
			return
		}
		board.Groups[tableID] = prevGroup
		board.Cards[cardIdx] = prevCard
	}
}

func (c *BoardCache) findOrderLocked(orderID int64) (*Board, int64, int) {
	for _, board := range c.boards {
		for tableID, group := range board.Groups {
			for i, o := range group {
				if o.ID() == orderID {
					return board, tableID, i
				}
			}
		}
	}
	return nil, 0, 0
}

func copyCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

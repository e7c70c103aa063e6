package services

import (
	"context"
	"errors"
	"sync"

	"yoursell/internal/domain"
)

// In-memory repository fakes. They mirror the persistence contracts closely
// enough for service tests: the auction repo enforces the version
// compare-and-swap, and all fakes are safe for concurrent use.

type memAuctionRepo struct {
	mu       sync.Mutex
	auctions map[string]*domain.Auction
	// failUpdates injects ErrConcurrencyConflict into the next N updates.
	failUpdates int
}

func newMemAuctionRepo() *memAuctionRepo {
	return &memAuctionRepo{auctions: make(map[string]*domain.Auction)}
}

func (r *memAuctionRepo) Create(ctx context.Context, auction *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[auction.ID]; ok {
		return domain.ErrAlreadyExists
	}
	auction.Version = 1
	clone := *auction
	r.auctions[auction.ID] = &clone
	return nil
}

func (r *memAuctionRepo) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.auctions[auctionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (r *memAuctionRepo) Update(ctx context.Context, auction *domain.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return domain.ErrConcurrencyConflict
	}
	stored, ok := r.auctions[auction.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Version != auction.Version {
		return domain.ErrConcurrencyConflict
	}
	auction.Version++
	clone := *auction
	r.auctions[auction.ID] = &clone
	return nil
}

func (r *memAuctionRepo) Delete(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.auctions[auctionID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.auctions, auctionID)
	return nil
}

func (r *memAuctionRepo) List(ctx context.Context) ([]*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memAuctionRepo) ListByStatus(ctx context.Context, status domain.AuctionStatus) ([]*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.auctions {
		if a.Status == status {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memAuctionRepo) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.auctions {
		if a.OwnerID == ownerID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memAuctionRepo) ListExpired(ctx context.Context, before int64) ([]*domain.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.auctions {
		if a.Status == domain.AuctionStarted && a.EndTime < before {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memBidRepo struct {
	mu   sync.Mutex
	bids map[string]*domain.Bid
	// failCreates injects errStorageFailure into the next N creates.
	failCreates int
}

var errStorageFailure = errors.New("storage failure")

func newMemBidRepo() *memBidRepo {
	return &memBidRepo{bids: make(map[string]*domain.Bid)}
}

func (r *memBidRepo) Create(ctx context.Context, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreates > 0 {
		r.failCreates--
		return errStorageFailure
	}
	if _, ok := r.bids[bid.ID]; ok {
		return domain.ErrAlreadyExists
	}
	clone := *bid
	r.bids[bid.ID] = &clone
	return nil
}

func (r *memBidRepo) Get(ctx context.Context, bidID string) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bids[bidID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (r *memBidRepo) Update(ctx context.Context, bid *domain.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[bid.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *bid
	r.bids[bid.ID] = &clone
	return nil
}

func (r *memBidRepo) ListByAuction(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Bid
	for _, b := range r.bids {
		if b.AuctionID == auctionID {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memBidRepo) GetWinning(ctx context.Context, auctionID string) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bids {
		if b.AuctionID == auctionID && b.IsWinning && !b.Archived {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memBidRepo) GetActiveByBidder(ctx context.Context, auctionID, bidderID string) (*domain.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bids {
		if b.AuctionID == auctionID && b.BidderID == bidderID && !b.Archived {
			clone := *b
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memBidRepo) ArchiveByAuction(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bids {
		if b.AuctionID == auctionID {
			b.Archived = true
			b.IsWinning = false
		}
	}
	return nil
}

func (r *memBidRepo) DeleteByAuction(ctx context.Context, auctionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.bids {
		if b.AuctionID == auctionID {
			delete(r.bids, id)
		}
	}
	return nil
}

// winningBids counts bids currently flagged winning for the auction.
func (r *memBidRepo) winningBids(auctionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bids {
		if b.AuctionID == auctionID && b.IsWinning && !b.Archived {
			n++
		}
	}
	return n
}

type memVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[string]*domain.Vehicle
}

func newMemVehicleRepo() *memVehicleRepo {
	return &memVehicleRepo{vehicles: make(map[string]*domain.Vehicle)}
}

func (r *memVehicleRepo) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *vehicle
	r.vehicles[vehicle.ID] = &clone
	return nil
}

func (r *memVehicleRepo) Get(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.vehicles[vehicleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *stored
	return &clone, nil
}

func (r *memVehicleRepo) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[vehicle.ID]; !ok {
		return domain.ErrNotFound
	}
	clone := *vehicle
	r.vehicles[vehicle.ID] = &clone
	return nil
}

func (r *memVehicleRepo) List(ctx context.Context) ([]*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Vehicle
	for _, v := range r.vehicles {
		if !v.Deleted {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memVehicleRepo) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Vehicle
	for _, v := range r.vehicles {
		if v.SellerID == sellerID && !v.Deleted {
			clone := *v
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memVehicleRepo) ExistsByVinAndSeller(ctx context.Context, vin, sellerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.Vin == vin && v.SellerID == sellerID && !v.Deleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memAuctionRepo) snapshot() map[string]*domain.Auction {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*domain.Auction, len(r.auctions))
	for id, a := range r.auctions {
		clone := *a
		snap[id] = &clone
	}
	return snap
}

func (r *memAuctionRepo) restore(snap map[string]*domain.Auction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions = snap
}

func (r *memBidRepo) snapshot() map[string]*domain.Bid {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*domain.Bid, len(r.bids))
	for id, b := range r.bids {
		clone := *b
		snap[id] = &clone
	}
	return snap
}

func (r *memBidRepo) restore(snap map[string]*domain.Bid) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bids = snap
}

// memTxManager rolls the auction and bid fakes back together when fn fails.
// Callers hold the auction's critical section, so the whole-store snapshot is
// never raced by a writer to another auction in these tests.
type memTxManager struct {
	auctions *memAuctionRepo
	bids     *memBidRepo
}

func (m *memTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	auctionSnap := m.auctions.snapshot()
	bidSnap := m.bids.snapshot()
	if err := fn(ctx); err != nil {
		m.auctions.restore(auctionSnap)
		m.bids.restore(bidSnap)
		return err
	}
	return nil
}

// capturingPublisher records every published event in order.
type capturingPublisher struct {
	mu     sync.Mutex
	events []*domain.AuctionEvent
}

func (p *capturingPublisher) PublishAuctionEvent(ctx context.Context, event *domain.AuctionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) eventsOfType(t domain.AuctionEventType) []*domain.AuctionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*domain.AuctionEvent
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// staticLeader reports a fixed leadership decision.
type staticLeader struct {
	leader bool
}

func (l *staticLeader) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, nil
}

func (l *staticLeader) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	return l.leader, nil
}

func (l *staticLeader) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return nil
}

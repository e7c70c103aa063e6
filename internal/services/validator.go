package services

import (
	"github.com/shopspring/decimal"

	"yoursell/internal/domain"
)

// BidPolicy tunes admission across all auctions. Zero increments disable the
// corresponding bound.
type BidPolicy struct {
	MinIncrement decimal.Decimal
	MaxIncrement decimal.Decimal
	// AllowRebid selects the supersede policy: a new qualifying bid from a
	// bidder replaces their previous bid. When false a bidder gets exactly
	// one bid per auction.
	AllowRebid bool
}

// BidValidator is the pure predicate set deciding whether a candidate bid may
// be admitted. Rules run in a fixed order and the first failure wins, so a
// client always sees the same rejection for the same auction snapshot.
type BidValidator struct {
	policy BidPolicy
}

func NewBidValidator(policy BidPolicy) *BidValidator {
	return &BidValidator{policy: policy}
}

func (v *BidValidator) Validate(auction *domain.Auction, winning *domain.Bid, bidderID string, amount decimal.Decimal) error {
	if auction.Status != domain.AuctionStarted {
		return domain.ErrInvalidState
	}
	if bidderID == auction.OwnerID {
		return domain.ErrForbidden
	}
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if amount.LessThanOrEqual(auction.CurrentHighestBid) {
		// A leader resubmitting their own winning amount gets the more
		// specific rejection.
		if winning != nil && winning.BidderID == bidderID && winning.Value.Equal(amount) {
			return domain.ErrDuplicateBid
		}
		return domain.ErrBidTooLow
	}
	if v.policy.MinIncrement.IsPositive() &&
		amount.LessThan(auction.CurrentHighestBid.Add(v.policy.MinIncrement)) {
		return domain.ErrBidOutOfRange
	}
	if v.policy.MaxIncrement.IsPositive() &&
		amount.GreaterThan(auction.CurrentHighestBid.Add(v.policy.MaxIncrement)) {
		return domain.ErrBidOutOfRange
	}
	return nil
}

// MinimumBid is the lowest amount Validate would admit against the given
// current highest bid. Surfaced in rejection notifications.
func (v *BidValidator) MinimumBid(current decimal.Decimal) decimal.Decimal {
	if v.policy.MinIncrement.IsPositive() {
		return current.Add(v.policy.MinIncrement)
	}
	return current
}

func (v *BidValidator) AllowRebid() bool {
	return v.policy.AllowRebid
}

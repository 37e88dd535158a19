package cart

import (
	"time"

	"agrigenie/internal/model"

	"github.com/google/uuid"
)

// Wishlist is a buyer's set of saved listings, newest last.
type Wishlist struct {
	BuyerID uuid.UUID            `json:"buyer_id"`
	Items   []model.WishlistItem `json:"items"`
}

// NewWishlist returns an empty wishlist for buyerID.
func NewWishlist(buyerID uuid.UUID) *Wishlist {
	return &Wishlist{BuyerID: buyerID, Items: []model.WishlistItem{}}
}

// Contains reports whether listingID is saved.
func (w *Wishlist) Contains(listingID uuid.UUID) bool {
	for _, item := range w.Items {
		if item.ListingID == listingID {
			return true
		}
	}
	return false
}

// Add saves item. Saving a listing twice is a no-op and returns false.
func (w *Wishlist) Add(item model.WishlistItem) bool {
	if w.Contains(item.ListingID) {
		return false
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	w.Items = append(w.Items, item)
	return true
}

// Remove drops listingID from the wishlist.
func (w *Wishlist) Remove(listingID uuid.UUID) bool {
	for i, item := range w.Items {
		if item.ListingID == listingID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

package item

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrNameRequired  = errors.New("請輸入商品名稱")
	ErrInvalidPoints = errors.New("兌換點數至少為 1")
	ErrImageRequired = errors.New("請上傳商品圖片")
)

// Item is a redeemable catalog entry. Description is Markdown.
type Item struct {
	ItemID      string `json:"itemId,omitempty"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

// Validate checks the fields an item form must carry.
// PRE: Item struct is populated from form input
// POST: Returns nil if valid, the first failing rule otherwise
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrNameRequired
	}
	if i.Points < 1 {
		return ErrInvalidPoints
	}
	if strings.TrimSpace(i.ImageURL) == "" {
		return ErrImageRequired
	}
	return nil
}

// Affordable reports whether balance covers the item's cost.
func (i Item) Affordable(balance int64) bool {
	return balance >= i.Points
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ID is an identifier issued by another service. Those services emit both
// numeric and string ids, so both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a string or a number: %w", err)
		}
		*id = ID(n.String())
	}
	return nil
}

func (id ID) String() string { return string(id) }

// AuthContext is the authenticated identity of the requester.
type AuthContext struct {
	UserID ID     `json:"id"`
	Email  string `json:"email"`
}

type CartItem struct {
	UserID      ID  `json:"UserId"`
	InventoryID ID  `json:"InventoryId"`
	Quantity    int `json:"Quantity"`
}

// InventorySnapshot is a point-in-time read of one product; no lock is held.
type InventorySnapshot struct {
	InventoryID   ID              `json:"Id"`
	StockQuantity int             `json:"StockQuantity"`
	Name          string          `json:"Name"`
	UnitPrice     decimal.Decimal `json:"Price"`
}

// MergeCartLines folds lines that share an inventory id into one line,
// keeping the order in which products first appear.
func MergeCartLines(items []CartItem) []CartItem {
	merged := make([]CartItem, 0, len(items))
	index := make(map[ID]int, len(items))
	for _, it := range items {
		if i, ok := index[it.InventoryID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.InventoryID] = len(merged)
		merged = append(merged, it)
	}
	return merged
}

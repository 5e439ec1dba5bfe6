package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ItemExtra is a priced add-on frozen onto the order item at checkout.
type ItemExtra struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ItemExtras is stored as JSONB on order_items.
type ItemExtras []ItemExtra

// Value implements driver.Valuer for JSONB
func (ie ItemExtras) Value() (driver.Value, error) {
	if ie == nil {
		return nil, nil
	}
	return json.Marshal(ie)
}

// Scan implements sql.Scanner for JSONB
func (ie *ItemExtras) Scan(value interface{}) error {
	if value == nil {
		*ie = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrInvalidItemExtras
	}

	return json.Unmarshal(bytes, ie)
}

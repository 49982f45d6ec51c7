package lifecycle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/suteetoe/restaurantpro/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ItemError reports one rejected line of an order payload
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// DecodeItems turns a raw items payload into validated line items.
// Malformed entries are skipped and reported; a payload that is not a JSON
// array at all is an error.
func DecodeItems(raw []byte) ([]model.OrderItem, []ItemError, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []model.OrderItem{}, nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("items payload is not a list: %w", err)
	}

	items := make([]model.OrderItem, 0, len(entries))
	var rejected []ItemError
	for i, entry := range entries {
		item, err := decodeItem(entry)
		if err != nil {
			rejected = append(rejected, ItemError{Index: i, Err: err})
			continue
		}
		items = append(items, item)
	}
	return items, rejected, nil
}

func decodeItem(entry json.RawMessage) (model.OrderItem, error) {
	var item model.OrderItem
	if err := json.Unmarshal(entry, &item); err != nil {
		return model.OrderItem{}, err
	}
	if err := ValidateItem(item); err != nil {
		return model.OrderItem{}, err
	}
	return item, nil
}

// ValidateItem checks field constraints and that total equals price times quantity to the cent
func ValidateItem(item model.OrderItem) error {
	if err := validate.Struct(item); err != nil {
		return err
	}
	want := item.Price * float64(item.Quantity)
	if math.Abs(roundCents(want)-roundCents(item.Total)) > 0.001 {
		return fmt.Errorf("total %.2f does not match %d x %.2f", item.Total, item.Quantity, item.Price)
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

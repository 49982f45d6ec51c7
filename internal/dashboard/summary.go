package dashboard

import "github.com/suteetoe/restaurantpro/internal/model"

// GuestSummary aggregates the orders of one guest
type GuestSummary struct {
	GuestID    string  `json:"guest_id"`
	Name       string  `json:"name"`
	Orders     int     `json:"orders"`
	Spent      float64 `json:"spent"`
	HasPaid    bool    `json:"has_paid"`
	PaidOrders int     `json:"paid_orders"`
	OpenOrders int     `json:"open_orders"`
}

// Summary is derived from the order list on every load
type Summary struct {
	Active       []model.Order  `json:"active"`
	Paid         []model.Order  `json:"paid"`
	Revenue      float64        `json:"revenue"`
	UniqueGuests int            `json:"unique_guests"`
	Guests       []GuestSummary `json:"guests"`
}

// Summarize splits orders into active and paid sets and groups them by guest.
// Orders of other restaurants are ignored. List order is preserved in every set.
func Summarize(restaurantID string, orders []model.Order) Summary {
	sum := Summary{
		Active: []model.Order{},
		Paid:   []model.Order{},
		Guests: []GuestSummary{},
	}
	index := map[string]int{}

	for _, o := range orders {
		if o.RestaurantID != restaurantID {
			continue
		}

		i, seen := index[o.GuestID]
		if !seen {
			i = len(sum.Guests)
			index[o.GuestID] = i
			sum.Guests = append(sum.Guests, GuestSummary{GuestID: o.GuestID, Name: o.GuestName})
		}
		g := &sum.Guests[i]
		g.Orders++

		if o.IsPaid() {
			sum.Paid = append(sum.Paid, o)
			sum.Revenue += o.Total
			g.Spent += o.Total
			g.PaidOrders++
			g.HasPaid = true
		} else {
			sum.Active = append(sum.Active, o)
			g.OpenOrders++
		}
	}

	sum.UniqueGuests = len(sum.Guests)
	return sum
}

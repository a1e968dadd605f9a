package order

import "time"

type Customer struct {
	Name      string
	Email     string
	AreaCode  string
	Phone     string
	TaxNumber string
}

type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	PostalCode string
	City       string
	State      string
	Country    string
}

type Item struct {
	SKU         string
	Name        string
	Quantity    int
	UnitPrice   int64 // centavos
	WeightGrams int
}

// Basket is the purchasable content shared by quotes and placed orders.
type Basket struct {
	Customer        Customer
	ShippingAddress *Address
	ShippingAmount  int64
	Currency        string
	Items           []Item
}

func (b Basket) ItemsTotal() int64 {
	var total int64
	for _, it := range b.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

type Order struct {
	ID          uint
	IncrementID string
	QuoteID     *uint
	GrandTotal  int64
	CreatedAt   time.Time
	Basket
}

// Quote is a cart being checked out. ReservedOrderID is empty until an
// increment id has been reserved for the order it will become.
type Quote struct {
	ID              uint
	ReservedOrderID string
	GrandTotal      int64
	UpdatedAt       time.Time
	Basket
}

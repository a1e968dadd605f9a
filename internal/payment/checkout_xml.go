package payment

import (
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	xmlHeaderLatin1 = `<?xml version="1.0" encoding="ISO-8859-1" standalone="yes"?>` + "\n"

	defaultCurrency     = "BRL"
	shippingUnspecified = 3
	maxDescriptionRunes = 100
)

// CheckoutDocument is the PagSeguro v2 checkout request.
type CheckoutDocument struct {
	XMLName     xml.Name          `xml:"checkout"`
	Currency    string            `xml:"currency"`
	Reference   string            `xml:"reference"`
	Items       []CheckoutItem    `xml:"items>item"`
	Sender      *CheckoutSender   `xml:"sender,omitempty"`
	Shipping    *CheckoutShipping `xml:"shipping,omitempty"`
	ExtraAmount string            `xml:"extraAmount"`
}

type CheckoutItem struct {
	ID          string `xml:"id"`
	Description string `xml:"description"`
	Amount      string `xml:"amount"`
	Quantity    int    `xml:"quantity"`
	Weight      int    `xml:"weight,omitempty"`
}

type CheckoutSender struct {
	Name  string         `xml:"name,omitempty"`
	Email string         `xml:"email,omitempty"`
	Phone *CheckoutPhone `xml:"phone,omitempty"`
}

type CheckoutPhone struct {
	AreaCode string `xml:"areaCode"`
	Number   string `xml:"number"`
}

type CheckoutShipping struct {
	Type    int              `xml:"type"`
	Cost    string           `xml:"cost"`
	Address *CheckoutAddress `xml:"address,omitempty"`
}

type CheckoutAddress struct {
	Street     string `xml:"street"`
	Number     string `xml:"number"`
	Complement string `xml:"complement"`
	District   string `xml:"district"`
	PostalCode string `xml:"postalCode"`
	City       string `xml:"city"`
	State      string `xml:"state"`
	Country    string `xml:"country"`
}

// BuildCheckoutDocument turns a purchase into the gateway request. Any
// difference between amount and the purchase total (items plus shipping)
// goes into extraAmount, so the gateway charges exactly amount.
func BuildCheckoutDocument(p *Purchase, amount int64) *CheckoutDocument {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	doc := &CheckoutDocument{
		Currency:  currency,
		Reference: p.IncrementID,
		Items:     make([]CheckoutItem, 0, len(p.Items)),
	}

	for _, it := range p.Items {
		doc.Items = append(doc.Items, CheckoutItem{
			ID:          it.SKU,
			Description: truncateRunes(it.Name, maxDescriptionRunes),
			Amount:      formatAmount(it.UnitPrice),
			Quantity:    it.Quantity,
			Weight:      it.WeightGrams,
		})
	}

	c := p.Customer
	if c.Name != "" || c.Email != "" {
		doc.Sender = &CheckoutSender{Name: c.Name, Email: c.Email}
		if c.AreaCode != "" && c.Phone != "" {
			doc.Sender.Phone = &CheckoutPhone{AreaCode: c.AreaCode, Number: c.Phone}
		}
	}

	doc.Shipping = &CheckoutShipping{
		Type: shippingUnspecified,
		Cost: formatAmount(p.ShippingAmount),
	}
	if a := p.ShippingAddress; a != nil {
		country := a.Country
		if country == "" {
			country = "BRA"
		}
		doc.Shipping.Address = &CheckoutAddress{
			Street:     a.Street,
			Number:     a.Number,
			Complement: a.Complement,
			District:   a.District,
			PostalCode: a.PostalCode,
			City:       a.City,
			State:      a.State,
			Country:    country,
		}
	}

	doc.ExtraAmount = formatAmount(amount - p.ItemsTotal() - p.ShippingAmount)

	return doc
}

// EncodeCheckoutDocument serializes doc as ISO-8859-1 XML, the only charset
// the checkout endpoint accepts. Runes outside Latin-1 become '?'.
func EncodeCheckoutDocument(doc *CheckoutDocument) ([]byte, error) {
	body, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout document: %w", err)
	}

	latin1, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(toLatin1Repertoire(string(body))))
	if err != nil {
		return nil, fmt.Errorf("encode checkout document: %w", err)
	}

	return append([]byte(xmlHeaderLatin1), latin1...), nil
}

func toLatin1Repertoire(s string) string {
	return strings.Map(func(r rune) rune {
		if _, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			return r
		}
		return '?'
	}, s)
}

func formatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-kasir/internal/models"
)

// Receipt mirrors the original till printout: customer header, per-line
// items, totals, tendered amount, and change.
type Receipt struct {
	Code         string        `json:"code"`
	IssuedAt     time.Time     `json:"issued_at"`
	CustomerName string        `json:"customer_name"`
	Items        []ReceiptItem `json:"items"`
	Total        int64         `json:"total"`
	Payment      int64         `json:"payment"`
	Change       int64         `json:"change"`
}

type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// BuildReceipt flattens a persisted sale into display data. Unit prices are
// derived from the captured subtotals, not the current product price, so the
// receipt shows what the customer actually paid.
func BuildReceipt(sale *models.Sale) Receipt {
	r := Receipt{
		Code:         sale.Code,
		IssuedAt:     sale.CreatedAt,
		CustomerName: sale.Customer.Name,
		Items:        make([]ReceiptItem, 0, len(sale.Details)),
		Total:        sale.Total,
		Payment:      sale.Payment,
		Change:       sale.Change,
	}
	for _, d := range sale.Details {
		item := ReceiptItem{
			Name:     d.Product.Name,
			Quantity: d.Quantity,
			Subtotal: d.Subtotal,
		}
		if d.Quantity > 0 {
			item.UnitPrice = d.Subtotal / int64(d.Quantity)
		}
		r.Items = append(r.Items, item)
	}
	return r
}

// Text renders the receipt as plain text for printing. No bit-exact format is
// promised; keep it stable enough to read on a till printer.
func (r Receipt) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "NOTA PEMBAYARAN %s\n", r.Code)
	fmt.Fprintf(&b, "%s\n", r.IssuedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Pelanggan: %s\n", r.CustomerName)
	b.WriteString(strings.Repeat("-", 32) + "\n")
	for _, it := range r.Items {
		fmt.Fprintf(&b, "%s x%d @ %d = %d\n", it.Name, it.Quantity, it.UnitPrice, it.Subtotal)
	}
	b.WriteString(strings.Repeat("-", 32) + "\n")
	fmt.Fprintf(&b, "Total:     %d\n", r.Total)
	fmt.Fprintf(&b, "Bayar:     %d\n", r.Payment)
	fmt.Fprintf(&b, "Kembalian: %d\n", r.Change)
	return b.String()
}

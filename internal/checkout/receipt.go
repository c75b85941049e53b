package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/upsc-portal-gateway/internal/models"
)

// ReceiptRenderer formats a verified payment into a plain-text receipt
// suitable for printing or emailing.
type ReceiptRenderer struct {
	brand string
	loc   *time.Location
}

// NewReceiptRenderer creates a renderer. tz names the timezone receipts
// are stamped in; an unknown name falls back to UTC.
func NewReceiptRenderer(brand, tz string) *ReceiptRenderer {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return &ReceiptRenderer{brand: brand, loc: loc}
}

// Render produces the receipt text for a verified payment
func (r *ReceiptRenderer) Render(p *models.PaymentRecord) string {
	issued := p.CreatedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	var b strings.Builder
	rule := strings.Repeat("=", 48)

	fmt.Fprintf(&b, "%s\n%s\nPAYMENT RECEIPT\n%s\n\n", rule, r.brand, rule)
	fmt.Fprintf(&b, "Receipt for payment %s\n\n", p.ID)
	fmt.Fprintf(&b, "Student    : %s\n", p.StudentName)
	fmt.Fprintf(&b, "Mobile     : %s\n", p.Mobile)
	fmt.Fprintf(&b, "Email      : %s\n", p.Email)
	if p.CourseID != "" {
		fmt.Fprintf(&b, "Course     : %s\n", p.CourseID)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Amount     : %.2f %s\n", p.Amount, currencyOrINR(p.Currency))
	if p.RazorpayOrderID != "" {
		fmt.Fprintf(&b, "Order ID   : %s\n", p.RazorpayOrderID)
	}
	if p.RazorpayPaymentID != "" {
		fmt.Fprintf(&b, "Payment ID : %s\n", p.RazorpayPaymentID)
	}
	fmt.Fprintf(&b, "Issued     : %s\n", issued.In(r.loc).Format("02 Jan 2006 15:04 MST"))
	fmt.Fprintf(&b, "\n%s\n", rule)

	return b.String()
}

func currencyOrINR(c string) string {
	if c == "" {
		return "INR"
	}
	return c
}

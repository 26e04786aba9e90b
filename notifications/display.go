package notifications

import "fmt"

// Fallback strings shown when a cancellation record arrives without the
// optional passenger fields. The portal is Arabic-first, so the fallbacks
// are too.
const (
	fallbackPassenger   = "مسافر"
	fallbackUnspecified = "غير محدد"
)

// Display is the presentation-ready projection of one item: every field is
// a string with the blank cases already resolved.
type Display struct {
	FormattedDate string
	PassengerName string
	SeatNumber    string
	Amount        string
}

// Describe formats an item for rendering. Missing passenger details fall
// back to neutral placeholders rather than empty strings, and the amount is
// suffixed with the Saudi riyal mark only when present.
func Describe(item Item) Display {
	d := Display{
		FormattedDate: item.CreatedAt.Format("Jan 2, 2006, 03:04 PM"),
		PassengerName: item.PassengerName,
		SeatNumber:    item.SeatNumber,
		Amount:        fallbackUnspecified,
	}
	if d.PassengerName == "" {
		d.PassengerName = fallbackPassenger
	}
	if d.SeatNumber == "" {
		d.SeatNumber = fallbackUnspecified
	}
	if item.Amount != 0 {
		d.Amount = fmt.Sprintf("%g ر.س", item.Amount)
	}
	return d
}

package scoring

// Receipt is the scorable form of a purchase receipt.
// Amounts, dates and times stay in their textual form because some rules
// look at the text itself (a total ending in ".00").
type Receipt struct {
	Retailer     string
	PurchaseDate string // YYYY-MM-DD
	PurchaseTime string // HH:MM, 24 hour clock
	Items        []Item
	Total        string
}

// Item is a single line item on a receipt
type Item struct {
	ShortDescription string
	Price            string
}

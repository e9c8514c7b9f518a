package receipt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zombor/receipt-processor/internal/scoring"
)

var (
	// ErrInvalidReceipt is returned for a receipt that cannot be scored,
	// either because a required field is absent or because a field is malformed.
	ErrInvalidReceipt = errors.New("invalid receipt")

	// ErrNotFound is returned when no receipt was stored under an ID
	ErrNotFound = errors.New("receipt not found")

	// ErrDuplicateID is returned by DB.SavePoints when the ID is already taken
	ErrDuplicateID = errors.New("duplicate receipt id")
)

// ProcessRequest is the JSON body of POST /receipts/process.
// Required fields are pointers so an absent field can be told apart from an
// empty one. A field sent as null is treated as absent.
type ProcessRequest struct {
	Retailer     *string        `json:"retailer"`
	PurchaseDate *string        `json:"purchaseDate"`
	PurchaseTime *string        `json:"purchaseTime"`
	Items        *[]ItemRequest `json:"items"`
	Total        *string        `json:"total"`
}

// ItemRequest is a line item in a ProcessRequest
type ItemRequest struct {
	ShortDescription string `json:"shortDescription"`
	Price            string `json:"price"`
}

// MissingFieldError lists the required fields absent from a request
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Validate reports every required field absent from the request
func (r *ProcessRequest) Validate() error {
	var missing []string
	if r.Retailer == nil {
		missing = append(missing, "retailer")
	}
	if r.PurchaseDate == nil {
		missing = append(missing, "purchaseDate")
	}
	if r.PurchaseTime == nil {
		missing = append(missing, "purchaseTime")
	}
	if r.Items == nil {
		missing = append(missing, "items")
	}
	if r.Total == nil {
		missing = append(missing, "total")
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}

// ToReceipt converts a validated request into its scorable form.
// Callers must run Validate first.
func (r *ProcessRequest) ToReceipt() scoring.Receipt {
	items := make([]scoring.Item, 0, len(*r.Items))
	for _, item := range *r.Items {
		items = append(items, scoring.Item{
			ShortDescription: item.ShortDescription,
			Price:            item.Price,
		})
	}

	return scoring.Receipt{
		Retailer:     *r.Retailer,
		PurchaseDate: *r.PurchaseDate,
		PurchaseTime: *r.PurchaseTime,
		Items:        items,
		Total:        *r.Total,
	}
}

// Package scoring computes reward points for purchase receipts.
//
// Points are the sum of a fixed, ordered set of independent rules. Scoring is
// a pure function of the receipt: it performs no I/O and returns the same
// result every time it is given the same receipt.
package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	dateSeparator = "-"
	timeSeparator = ":"

	roundDollarSuffix  = ".00"
	roundDollarPoints  = 50
	quarterPoints      = 25
	itemPairPoints     = 5
	descriptionDivisor = 3
	oddDayPoints       = 6
	afternoonPoints    = 10

	// Purchases from 14:00 through 16:59 qualify.
	afternoonFirstHour = 14
	afternoonLastHour  = 16

	// maxItemPoints bounds what a single item may earn under the
	// description rule.
	maxItemPoints = math.MaxInt32
)

var (
	quarter             = decimal.RequireFromString("0.25")
	itemPriceMultiplier = decimal.RequireFromString("0.2")
	maxItemPointsValue  = decimal.NewFromInt(maxItemPoints)

	errPriceOutOfRange  = fmt.Errorf("price earns more than %d points", maxItemPoints)
	errMissingSeparator = errors.New("missing separator")
	errNotNumeric       = errors.New("not a number")
)

// RuleResult is the contribution of one rule to a receipt's points
type RuleResult struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
}

// Breakdown lists rule contributions in evaluation order
type Breakdown []RuleResult

// Total returns the sum of all rule contributions, saturating at the
// bounds of int.
func (b Breakdown) Total() int {
	var total int
	for _, r := range b {
		total = addPoints(total, r.Points)
	}
	return total
}

// addPoints adds without wrapping around
func addPoints(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}

// LogValue renders the breakdown as a group of rule=points attributes
func (b Breakdown) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(b))
	for _, r := range b {
		attrs = append(attrs, slog.Int(r.Rule, r.Points))
	}
	return slog.GroupValue(attrs...)
}

type parsedItem struct {
	description string
	price       decimal.Decimal
}

// parsedReceipt holds the receipt fields already converted to the types the
// rules work with.
type parsedReceipt struct {
	retailer  string
	totalText string
	total     decimal.Decimal
	items     []parsedItem
	day       int
	hour      int
}

type rule struct {
	name   string
	points func(r *parsedReceipt) int
}

// rules are evaluated in this order. The order does not change the sum but
// it is the order a Breakdown reports.
var rules = []rule{
	{name: "retailer_alphanumeric", points: retailerAlphanumeric},
	{name: "round_dollar_total", points: roundDollarTotal},
	{name: "quarter_multiple_total", points: quarterMultipleTotal},
	{name: "item_pairs", points: itemPairs},
	{name: "item_description_length", points: itemDescriptionLength},
	{name: "odd_purchase_day", points: oddPurchaseDay},
	{name: "afternoon_purchase_hour", points: afternoonPurchaseHour},
}

// Rules returns the rule names in evaluation order
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// Score returns the reward points for a receipt.
// A field that cannot be parsed is reported as a *FormatError.
func Score(r Receipt) (int, error) {
	breakdown, err := Explain(r)
	if err != nil {
		return 0, err
	}
	return breakdown.Total(), nil
}

// Explain scores a receipt and returns each rule's contribution
func Explain(r Receipt) (Breakdown, error) {
	parsed, err := parse(r)
	if err != nil {
		return nil, err
	}

	breakdown := make(Breakdown, 0, len(rules))
	for _, rl := range rules {
		breakdown = append(breakdown, RuleResult{Rule: rl.name, Points: rl.points(parsed)})
	}
	return breakdown, nil
}

// parse converts the textual receipt fields, failing on the first one that
// is malformed.
func parse(r Receipt) (*parsedReceipt, error) {
	total, err := decimal.NewFromString(r.Total)
	if err != nil {
		return nil, &FormatError{Field: "total", Value: r.Total, Err: err}
	}

	items := make([]parsedItem, 0, len(r.Items))
	for i, item := range r.Items {
		field := fmt.Sprintf("items[%d].price", i)
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, &FormatError{Field: field, Value: item.Price, Err: err}
		}
		if itemPoints(price).Abs().GreaterThan(maxItemPointsValue) {
			return nil, &FormatError{Field: field, Value: item.Price, Err: errPriceOutOfRange}
		}
		items = append(items, parsedItem{
			description: strings.TrimSpace(item.ShortDescription),
			price:       price,
		})
	}

	day, err := purchaseDay(r.PurchaseDate)
	if err != nil {
		return nil, &FormatError{Field: "purchaseDate", Value: r.PurchaseDate, Err: err}
	}

	hour, err := purchaseHour(r.PurchaseTime)
	if err != nil {
		return nil, &FormatError{Field: "purchaseTime", Value: r.PurchaseTime, Err: err}
	}

	return &parsedReceipt{
		retailer:  r.Retailer,
		totalText: r.Total,
		total:     total,
		items:     items,
		day:       day,
		hour:      hour,
	}, nil
}

// purchaseDay returns the day component of a YYYY-MM-DD date. Only the day
// is read, so the date is not checked against the calendar.
func purchaseDay(date string) (int, error) {
	parts := strings.Split(date, dateSeparator)
	if len(parts) != 3 {
		return 0, errMissingSeparator
	}
	return parseComponent(parts[2])
}

// purchaseHour returns the hour component of an HH:MM time. Anything after
// the first separator, seconds included, is ignored.
func purchaseHour(clock string) (int, error) {
	hour, _, ok := strings.Cut(clock, timeSeparator)
	if !ok {
		return 0, errMissingSeparator
	}
	return parseComponent(hour)
}

// parseComponent parses an unsigned run of ASCII digits
func parseComponent(s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, errNotNumeric
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// itemPoints is what an item earns under the description rule
func itemPoints(price decimal.Decimal) decimal.Decimal {
	return price.Mul(itemPriceMultiplier).Ceil()
}

// retailerAlphanumeric awards one point per letter or digit in the retailer name
func retailerAlphanumeric(r *parsedReceipt) int {
	var points int
	for _, c := range r.retailer {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			points++
		}
	}
	return points
}

func roundDollarTotal(r *parsedReceipt) int {
	if strings.HasSuffix(r.totalText, roundDollarSuffix) {
		return roundDollarPoints
	}
	return 0
}

// quarterMultipleTotal works on the exact decimal total; float64 modulo
// misclassifies totals like 0.30.
func quarterMultipleTotal(r *parsedReceipt) int {
	if r.total.Mod(quarter).IsZero() {
		return quarterPoints
	}
	return 0
}

func itemPairs(r *parsedReceipt) int {
	return len(r.items) / 2 * itemPairPoints
}

// itemDescriptionLength awards ceil(price * 0.2) for every item whose trimmed
// description length is a multiple of three. An empty description counts.
func itemDescriptionLength(r *parsedReceipt) int {
	var points int
	for _, item := range r.items {
		if utf8.RuneCountInString(item.description)%descriptionDivisor != 0 {
			continue
		}
		points = addPoints(points, int(itemPoints(item.price).IntPart()))
	}
	return points
}

func oddPurchaseDay(r *parsedReceipt) int {
	if r.day%2 == 1 {
		return oddDayPoints
	}
	return 0
}

func afternoonPurchaseHour(r *parsedReceipt) int {
	if r.hour >= afternoonFirstHour && r.hour <= afternoonLastHour {
		return afternoonPoints
	}
	return 0
}

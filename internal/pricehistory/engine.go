package pricehistory

import (
	"maps"
	"regexp"

	"github.com/shopspring/decimal"
)

// Key identifies one tracked product line.
type Key struct {
	Product  string `json:"product"`
	Supplier string `json:"supplier"`
	UnitType string `json:"unit_type"`
}

// Classification is the direction of a price update.
type Classification string

const (
	NewProduct Classification = "new_product"
	Increase   Classification = "increase"
	Decrease   Classification = "decrease"
	Unchanged  Classification = "unchanged"
)

// State is the rolling price state for one Key. Prices and links are kept
// exactly as observed; only comparisons parse them.
type State struct {
	Key
	CurrentPrice       string         `json:"current_price"`
	CurrentLink        string         `json:"current_link"`
	PreviousPrice      *string        `json:"previous_price,omitempty"`
	PreviousLink       *string        `json:"previous_link,omitempty"`
	LastUpdated        string         `json:"last_updated"`
	ObservationCount   int            `json:"observation_count"`
	LastDeltaPercent   float64        `json:"last_delta_percent"`
	LastClassification Classification `json:"last_classification"`
}

// Table holds every known State by Key.
type Table map[Key]State

// Observation is one invoice line item's unit price at a point in time.
type Observation struct {
	Key
	Price string
	Link  string
	Date  string
}

// Update is the result of recording one Observation.
type Update struct {
	State          State
	Classification Classification
	DeltaPercent   float64
}

var reNonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// Numeric strips everything but digits, '.' and '-' and parses the rest.
func Numeric(price string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(reNonNumeric.ReplaceAllString(price, ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

var hundred = decimal.NewFromInt(100)

// Delta returns the signed percentage change from previous to current.
// A zero or unparseable side yields 0 and Unchanged.
func Delta(previous, current string) (float64, Classification) {
	prev, ok := Numeric(previous)
	if !ok || prev.IsZero() {
		return 0, Unchanged
	}
	cur, ok := Numeric(current)
	if !ok {
		return 0, Unchanged
	}
	delta := cur.Sub(prev).Div(prev).Mul(hundred)
	pct, _ := delta.Float64()
	switch delta.Sign() {
	case 1:
		return pct, Increase
	case -1:
		return pct, Decrease
	}
	return 0, Unchanged
}

// RecordObservation returns a copy of table with obs applied. The delta is
// computed against the current price before the update, which then becomes
// the previous price. The input table is not modified.
func RecordObservation(table Table, obs Observation) (Table, Update) {
	next := maps.Clone(table)
	if next == nil {
		next = Table{}
	}

	old, ok := next[obs.Key]
	if !ok {
		st := State{
			Key:                obs.Key,
			CurrentPrice:       obs.Price,
			CurrentLink:        obs.Link,
			LastUpdated:        obs.Date,
			ObservationCount:   1,
			LastClassification: NewProduct,
		}
		next[obs.Key] = st
		return next, Update{State: st, Classification: NewProduct}
	}

	pct, class := Delta(old.CurrentPrice, obs.Price)
	prevPrice, prevLink := old.CurrentPrice, old.CurrentLink
	st := State{
		Key:                obs.Key,
		CurrentPrice:       obs.Price,
		CurrentLink:        obs.Link,
		PreviousPrice:      &prevPrice,
		PreviousLink:       &prevLink,
		LastUpdated:        obs.Date,
		ObservationCount:   old.ObservationCount + 1,
		LastDeltaPercent:   pct,
		LastClassification: class,
	}
	next[obs.Key] = st
	return next, Update{State: st, Classification: class, DeltaPercent: pct}
}

package models

import "time"

// PriceSource enumerates where a unit price may come from.
type PriceSource string

const (
	SourceManual   PriceSource = "manual"
	SourceDisbun   PriceSource = "disbun"   // regional plantation authority
	SourcePTPN     PriceSource = "ptpn"     // state-enterprise board
	SourceAsosiasi PriceSource = "asosiasi" // industry association
	SourceCustom   PriceSource = "custom"
	SourceSimulate PriceSource = "simulate"
)

// Valid reports whether s belongs to the closed source enumeration.
func (s PriceSource) Valid() bool {
	switch s {
	case SourceManual, SourceDisbun, SourcePTPN, SourceAsosiasi, SourceCustom, SourceSimulate:
		return true
	}
	return false
}

// PriceEntry is one resolved unit price for a classification on an
// effective date. At most one entry may exist per
// (effective date, classification, grade) tuple.
type PriceEntry struct {
	ID             string         `bson:"_id" json:"id"`
	EffectiveDate  time.Time      `bson:"effective_date" json:"effective_date"`
	Classification Classification `bson:"classification" json:"classification"`
	Grade          string         `bson:"grade,omitempty" json:"grade,omitempty"`
	Price          float64        `bson:"price" json:"price"`
	Source         PriceSource    `bson:"source" json:"source"`
	UpdatedBy      string         `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updated_at"`
}

// PriceQuote is the canonical record every external fetcher normalizes
// its payload into. A nil price means the source did not publish a value
// for that classification.
type PriceQuote struct {
	EffectiveDate time.Time                   `json:"effective_date"`
	Prices        map[Classification]*float64 `json:"prices"`
	Source        PriceSource                 `json:"source"`
	Raw           map[string]any              `json:"raw_payload,omitempty"`
}

// UpdateResult reports the outcome of one online price update, bucketed
// per classification for audit.
type UpdateResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Created []Classification `json:"created"`
	Updated []Classification `json:"updated"`
	Skipped []Classification `json:"skipped"`
}

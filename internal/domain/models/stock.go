package models

import "time"

// MovementType enumerates ledger entry kinds. Quantities are stored
// signed: "in" entries positive, "out" entries negative, adjustments
// carry whichever sign the correction needs.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// StockStatus enumerates where the quantity sits commercially.
type StockStatus string

const (
	StockAvailable StockStatus = "available"
	StockReserved  StockStatus = "reserved"
	StockSold      StockStatus = "sold"
	StockTransit   StockStatus = "transit"
)

// StockMovement is one ledger entry for a product family, linked back to
// the production batch that created it.
type StockMovement struct {
	ID           string       `bson:"_id" json:"id"`
	ProductType  ProductType  `bson:"product_type" json:"product_type"`
	MovementType MovementType `bson:"movement_type" json:"movement_type"`
	Quantity     float64      `bson:"quantity" json:"quantity"`
	Status       StockStatus  `bson:"status" json:"status"`
	BatchID      string       `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	Reference    string       `bson:"reference,omitempty" json:"reference,omitempty"`
	Notes        string       `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
}

package models

import "time"

// WeighingStatus enumerates the weighbridge lifecycle of one ticket.
type WeighingStatus string

const (
	WeighingCreated    WeighingStatus = "created"
	WeighingWeighedIn  WeighingStatus = "weighed_in"
	WeighingWeighedOut WeighingStatus = "weighed_out"
	WeighingCompleted  WeighingStatus = "completed"
)

// WeighingRecord is the 1:1 weighbridge companion of a QueueEntry.
// Netto and TotalPrice are derived values and are never entered directly.
type WeighingRecord struct {
	ID           string         `bson:"_id" json:"id"`
	QueueEntryID string         `bson:"queue_entry_id" json:"queue_entry_id"`
	TicketNumber string         `bson:"ticket_number" json:"ticket_number"`
	ProductType  string         `bson:"product_type" json:"product_type"`
	Bruto        *float64       `bson:"bruto,omitempty" json:"bruto,omitempty"`
	Tara         *float64       `bson:"tara,omitempty" json:"tara,omitempty"`
	Netto        *float64       `bson:"netto,omitempty" json:"netto,omitempty"`
	UnitPrice    *float64       `bson:"unit_price,omitempty" json:"unit_price,omitempty"`
	PriceSource  string         `bson:"price_source,omitempty" json:"price_source,omitempty"`
	TotalPrice   *float64       `bson:"total_price,omitempty" json:"total_price,omitempty"`
	// Splits holds optional secondary product weights keyed by product
	// type, e.g. a wet-kernel fraction weighed on the same ticket.
	Splits       map[string]float64 `bson:"splits,omitempty" json:"splits,omitempty"`
	Status       WeighingStatus     `bson:"status" json:"status"`
	WeighedInAt  *time.Time         `bson:"weighed_in_at,omitempty" json:"weighed_in_at,omitempty"`
	WeighedOutAt *time.Time         `bson:"weighed_out_at,omitempty" json:"weighed_out_at,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

package models

import "time"

// QueueStatus enumerates the lifecycle of a truck's visit.
type QueueStatus string

const (
	QueueWaiting    QueueStatus = "waiting"
	QueueProcessing QueueStatus = "processing"
	QueueCompleted  QueueStatus = "completed"
	QueueCancelled  QueueStatus = "cancelled"
)

// Valid reports whether s is one of the four enumerated queue states.
func (s QueueStatus) Valid() bool {
	switch s {
	case QueueWaiting, QueueProcessing, QueueCompleted, QueueCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s QueueStatus) Terminal() bool {
	return s == QueueCompleted || s == QueueCancelled
}

// Classification is the supplier category used to select a unit price tier.
type Classification string

const (
	ClassInti   Classification = "inti"   // company-owned estate
	ClassPlasma Classification = "plasma" // smallholder cooperative
	ClassUmum   Classification = "umum"   // open market
)

// AllClassifications lists the closed set in fixed tier order.
var AllClassifications = []Classification{ClassInti, ClassPlasma, ClassUmum}

// Valid reports whether c belongs to the closed classification set.
func (c Classification) Valid() bool {
	switch c {
	case ClassInti, ClassPlasma, ClassUmum:
		return true
	}
	return false
}

// QueueEntry identifies one truck's visit to the mill. The queue number is
// assigned exactly once, at creation, and never recomputed.
type QueueEntry struct {
	ID             string         `bson:"_id" json:"id"`
	QueueNumber    string         `bson:"queue_number" json:"queue_number"`
	TruckID        string         `bson:"truck_id" json:"truck_id"`
	SupplierID     string         `bson:"supplier_id,omitempty" json:"supplier_id,omitempty"`
	SupplierName   string         `bson:"supplier_name" json:"supplier_name"`
	Classification Classification `bson:"classification" json:"classification"`
	Status         QueueStatus    `bson:"status" json:"status"`
	CalledAt       *time.Time     `bson:"called_at,omitempty" json:"called_at,omitempty"`
	EstimateAt     *time.Time     `bson:"estimate_at,omitempty" json:"estimate_at,omitempty"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updated_at"`
}

package models

import "time"

// ProductType enumerates the product families handled by the mill.
type ProductType string

const (
	ProductFFB        ProductType = "ffb" // fresh fruit bunches (intake)
	ProductCPO        ProductType = "cpo"
	ProductKernel     ProductType = "kernel"
	ProductShell      ProductType = "shell"
	ProductEmptyBunch ProductType = "empty_bunch"
)

// BatchStatus enumerates the production lifecycle.
type BatchStatus string

const (
	BatchProcessing   BatchStatus = "processing"
	BatchQualityCheck BatchStatus = "quality_check"
	BatchCompleted    BatchStatus = "completed"
)

// BatchOutput is one typed output weight produced by a batch.
type BatchOutput struct {
	ProductType ProductType `bson:"product_type" json:"product_type" binding:"required"`
	Weight      float64     `bson:"weight" json:"weight" binding:"min=0"`
}

// ProductionBatch consumes a netto input weight and produces zero or
// more typed outputs. OER/KER are derived once the batch completes.
type ProductionBatch struct {
	ID          string        `bson:"_id" json:"id"`
	BatchNumber string        `bson:"batch_number" json:"batch_number"`
	WeighingIDs []string      `bson:"weighing_ids,omitempty" json:"weighing_ids,omitempty"`
	InputNetto  float64       `bson:"input_netto" json:"input_netto"`
	Outputs     []BatchOutput `bson:"outputs,omitempty" json:"outputs,omitempty"`
	Status      BatchStatus   `bson:"status" json:"status"`
	OER         *float64      `bson:"oer,omitempty" json:"oer,omitempty"` // oil extraction rate, percent
	KER         *float64      `bson:"ker,omitempty" json:"ker,omitempty"` // kernel extraction rate, percent
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

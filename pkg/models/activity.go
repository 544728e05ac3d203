package models

import "time"

// Activity names as registered on the worker.
const (
	ActivityValidateInput = "validate_input"
	ActivityProcessData   = "process_data"
	ActivityStoreData     = "store_data"
)

// RequiredField is the parameter key the simple workflow validates and transforms.
const RequiredField = "required_field"

type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type ProcessedData struct {
	Original       map[string]any `json:"original"`
	ProcessedAt    string         `json:"processed_at"`
	ProcessedValue string         `json:"processed_value"`
}

type ProcessingResult struct {
	Processed bool          `json:"processed"`
	Data      ProcessedData `json:"data"`
}

type StorageResult struct {
	Stored    bool   `json:"stored"`
	StorageID string `json:"storage_id"`
	Message   string `json:"message"`
}

// StorageRecord is what the store activity writes to the persistence sink.
type StorageRecord struct {
	ID       string        `json:"id"`
	Data     ProcessedData `json:"data"`
	StoredAt time.Time     `json:"stored_at"`
}

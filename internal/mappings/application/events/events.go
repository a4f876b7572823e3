package events

import "time"

// SignatureAssigned is emitted when an equipment is listed under a signature.
type SignatureAssigned struct {
	EventID             string    `json:"event_id"`
	EquipmentID         string    `json:"equipment_id"`
	SignatureID         string    `json:"signature_id"`
	PreviousSignatureID string    `json:"previous_signature_id,omitempty"`
	Actor               string    `json:"actor"`
	OccurredAt          time.Time `json:"occurred_at"`
}

// SignatureUnassigned is emitted when an equipment leaves its signature.
type SignatureUnassigned struct {
	EventID     string    `json:"event_id"`
	EquipmentID string    `json:"equipment_id"`
	SignatureID string    `json:"signature_id"`
	Actor       string    `json:"actor"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RecordMapped is emitted when an equipment is bound to an external record.
type RecordMapped struct {
	EventID              string    `json:"event_id"`
	EquipmentID          string    `json:"equipment_id"`
	ExternalRecordID     string    `json:"external_record_id"`
	DisplacedEquipmentID string    `json:"displaced_equipment_id,omitempty"`
	DisplacedRecordID    string    `json:"displaced_record_id,omitempty"`
	Actor                string    `json:"actor"`
	OccurredAt           time.Time `json:"occurred_at"`
}

// RecordUnmapped is emitted when a record mapping is removed.
type RecordUnmapped struct {
	EventID          string    `json:"event_id"`
	EquipmentID      string    `json:"equipment_id"`
	ExternalRecordID string    `json:"external_record_id"`
	Actor            string    `json:"actor"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ID returns the event identifier.
func (e SignatureAssigned) ID() string { return e.EventID }

// ID returns the event identifier.
func (e SignatureUnassigned) ID() string { return e.EventID }

// ID returns the event identifier.
func (e RecordMapped) ID() string { return e.EventID }

// ID returns the event identifier.
func (e RecordUnmapped) ID() string { return e.EventID }

package domain

import "time"

// Ticket is the transferable-at-issue proof of registration bound 1:1
// to an attendee. Once scanned it is permanently frozen: non-burnable,
// non-transferable.
type Ticket struct {
	ID         string    `json:"id"`
	AttendeeID string    `json:"attendee_id"`
	EventID    string    `json:"event_id"`
	Sequence   uint32    `json:"sequence"`
	FeePaid    uint64    `json:"fee_paid"`
	Frozen     bool      `json:"frozen"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScanVerdict is the outcome an authority records against a ticket.
type ScanVerdict string

const (
	ScanVerdictVerified ScanVerdict = "Verified"
	ScanVerdictRejected ScanVerdict = "Rejected"
)

// ScanRecord is one authority's verdict on a ticket. Records are
// write-once per (ticket, authority); the storage layer rejects a
// second write with the same key.
type ScanRecord struct {
	TicketID  string      `json:"ticket_id"`
	Authority string      `json:"authority"`
	Verdict   ScanVerdict `json:"verdict"`
	ScannedAt time.Time   `json:"scanned_at"`
}

package slip

import "time"

// Slip is the printable payment-confirmation artifact. One per registrant,
// keyed by a globally unique code that is never regenerated.
type Slip struct {
	ID           string    `json:"id"`
	RegistrantID string    `json:"registrant_id"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

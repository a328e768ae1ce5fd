package domain

import (
	"encoding/json"
	"time"
)

// Order statuses that indicate the customer has not paid. A job linked to an
// order in one of these states is hidden from unclaimed offers unless the
// technician has already accepted it.
var UnpaidOrderStatuses = map[string]struct{}{
	"pending_payment":  {},
	"unpaid":           {},
	"requires_payment": {},
}

// Order is the commercial record created at checkout. It holds the
// authoritative payout/subtotal data and may embed a back-reference to its
// Job inside the free-form metadata blob.
type Order struct {
	OrderID       string     `db:"order_id"`
	Status        string     `db:"status"`
	Subtotal      *float64   `db:"subtotal"`
	CustomerName  string     `db:"customer_name"`
	CustomerEmail string     `db:"customer_email"`
	CustomerPhone string     `db:"customer_phone"`
	Address       string     `db:"service_address"`
	City          string     `db:"service_city"`
	State         string     `db:"service_state"`
	Zip           string     `db:"service_zip"`
	MetadataRaw   []byte     `db:"metadata"`
	CreatedAt     time.Time  `db:"created_at"`

	meta map[string]any
}

// Metadata lazily decodes the metadata blob. A malformed blob decodes to an
// empty map rather than failing the request.
func (o *Order) Metadata() map[string]any {
	if o.meta != nil {
		return o.meta
	}
	o.meta = map[string]any{}
	if len(o.MetadataRaw) > 0 {
		_ = json.Unmarshal(o.MetadataRaw, &o.meta)
	}
	return o.meta
}

// MetaString returns a string-valued metadata field, or "" if absent or not
// a string.
func (o *Order) MetaString(key string) string {
	if v, ok := o.Metadata()[key].(string); ok {
		return v
	}
	return ""
}

// MetaFloat returns a numeric metadata field. JSON numbers decode as
// float64; string-encoded numbers are not accepted here.
func (o *Order) MetaFloat(key string) (float64, bool) {
	v, ok := o.Metadata()[key].(float64)
	return v, ok
}

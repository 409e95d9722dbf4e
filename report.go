package bimi

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tinylib/msgp/msgp"
)

// Report is the transport form of a validation outcome: a flattened,
// msgpack-serializable record for queues, audit logs and log correlation.
type Report struct {
	// ID is a unique, lexicographically sortable identifier for this
	// validation run.
	ID ulid.ULID

	// CheckedAt is when the validation finished.
	CheckedAt time.Time

	Domain   string
	Selector string

	Status Status
	Kind   FailKind

	// Message is the failure description, empty on none/declined/pass.
	Message string

	// Location and Authority are the policy record's indicator and
	// evidence URIs, when a record was resolved.
	Location  string
	Authority string

	// Errors lists every collected failure in collect-all mode.
	Errors []string
}

// NewReport flattens an outcome into a report with a fresh ID.
func NewReport(domain string, o Outcome) Report {
	r := Report{
		ID:        ulid.Make(),
		CheckedAt: time.Now(),
		Domain:    domain,
		Status:    o.Status,
		Kind:      o.Kind,
		Message:   o.Message,
	}
	if o.Record != nil {
		r.Selector = o.Record.Selector
		r.Location = o.Record.Location
		r.Authority = o.Record.AuthorityEvidenceLocation
	}
	for _, err := range o.Collected {
		r.Errors = append(r.Errors, err.Error())
	}
	return r
}

// reportFieldCount is the fixed width of the serialized report array;
// the error list counts as one element.
const reportFieldCount = 10

// MarshalMsg appends the report to b in msgpack form, as a fixed-width
// array in field order.
func (r Report) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, reportFieldCount)
	b = msgp.AppendBytes(b, r.ID[:])
	b = msgp.AppendTime(b, r.CheckedAt)
	b = msgp.AppendString(b, r.Domain)
	b = msgp.AppendString(b, r.Selector)
	b = msgp.AppendString(b, string(r.Status))
	b = msgp.AppendString(b, string(r.Kind))
	b = msgp.AppendString(b, r.Message)
	b = msgp.AppendString(b, r.Location)
	b = msgp.AppendString(b, r.Authority)

	b = msgp.AppendArrayHeader(b, uint32(len(r.Errors)))
	for _, e := range r.Errors {
		b = msgp.AppendString(b, e)
	}
	return b, nil
}

// UnmarshalMsg decodes a report from b, returning the remaining bytes.
func (r *Report) UnmarshalMsg(b []byte) ([]byte, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	if sz != reportFieldCount {
		return b, msgp.ArrayError{Wanted: reportFieldCount, Got: sz}
	}

	id, b, err := msgp.ReadBytesBytes(b, nil)
	if err != nil {
		return b, err
	}
	if copy(r.ID[:], id) != len(r.ID) {
		return b, ulid.ErrDataSize
	}

	if r.CheckedAt, b, err = msgp.ReadTimeBytes(b); err != nil {
		return b, err
	}
	if r.Domain, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if r.Selector, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}

	var s string
	if s, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	r.Status = Status(s)
	if s, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	r.Kind = FailKind(s)

	if r.Message, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if r.Location, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}
	if r.Authority, b, err = msgp.ReadStringBytes(b); err != nil {
		return b, err
	}

	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	r.Errors = nil
	for range n {
		var e string
		if e, b, err = msgp.ReadStringBytes(b); err != nil {
			return b, err
		}
		r.Errors = append(r.Errors, e)
	}

	return b, nil
}

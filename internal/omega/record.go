package omega

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"pricesync/internal/currency"
	"pricesync/internal/model"
)

// Record is one product entry of a vendor price payload.
// Required fields are checked when the payload is decoded, so a Record never
// carries an empty id, name or price.
type Record struct {
	id           string
	name         string
	price        string
	category     string
	discontinued bool
}

// NewRecord builds a Record from already validated values.
func NewRecord(id, name, price string, discontinued bool) Record {
	return Record{id: id, name: name, price: price, discontinued: discontinued}
}

// ExternalID returns the vendor's identifier for the product.
func (r Record) ExternalID() string { return r.id }

// Name returns the vendor's display name.
func (r Record) Name() string { return r.name }

// PriceText returns the raw vendor price string.
func (r Record) PriceText() string { return r.price }

// Category returns the vendor category, which may be empty.
func (r Record) Category() string { return r.category }

// Discontinued reports whether the vendor marked the product discontinued.
func (r Record) Discontinued() bool { return r.discontinued }

// PriceCents parses the vendor price string into cents.
func (r Record) PriceCents(radix rune) (int64, error) {
	cents, err := currency.ParsePrice(r.price, radix)
	if err != nil {
		return 0, fmt.Errorf("product [%s] price: %w", r.id, err)
	}
	return cents, nil
}

// Payload is a decoded vendor response.
type Payload struct {
	PeriodStart string
	PeriodEnd   string
	Records     []Record
}

type envelope struct {
	PeriodStart    string            `json:"period_start"`
	PeriodEnd      string            `json:"period_end"`
	ProductRecords []json.RawMessage `json:"productRecords"`
}

type rawRecord struct {
	ID           json.RawMessage `json:"id"`
	Name         *string         `json:"name"`
	Price        *string         `json:"price"`
	Category     string          `json:"category"`
	Discontinued *bool           `json:"discontinued"`
}

// DecodePayload decodes a vendor envelope and every record inside it.
// It fails with a *model.MalformedRecordError on the first record missing a required field.
func DecodePayload(r io.Reader) (*Payload, error) {
	var env envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding price envelope: %w", err)
	}

	payload := &Payload{
		PeriodStart: env.PeriodStart,
		PeriodEnd:   env.PeriodEnd,
		Records:     make([]Record, 0, len(env.ProductRecords)),
	}

	for i, raw := range env.ProductRecords {
		record, err := decodeRecord(i, raw)
		if err != nil {
			return nil, err
		}
		payload.Records = append(payload.Records, record)
	}

	return payload, nil
}

func decodeRecord(index int, data json.RawMessage) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("decoding vendor record %d: %w", index, err)
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return Record{}, fmt.Errorf("decoding vendor record %d id: %w", index, err)
	}
	if id == "" {
		return Record{}, &model.MalformedRecordError{Index: index, Field: "id"}
	}
	if raw.Name == nil || *raw.Name == "" {
		return Record{}, &model.MalformedRecordError{Index: index, Field: "name"}
	}
	if raw.Price == nil || *raw.Price == "" {
		return Record{}, &model.MalformedRecordError{Index: index, Field: "price"}
	}

	record := Record{
		id:       id,
		name:     *raw.Name,
		price:    *raw.Price,
		category: raw.Category,
	}
	if raw.Discontinued != nil {
		record.discontinued = *raw.Discontinued
	}
	return record, nil
}

// decodeID accepts the vendor id as either a JSON string or a JSON number.
func decodeID(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

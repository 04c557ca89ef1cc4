package wire

import (
	"bytes"
	"encoding/json"
	"strings"

	"finboard/internal/core"
)

// Transaction accepts both the camelCase and snake_case transaction shapes.
type Transaction struct {
	ID                   string      `json:"id"`
	MongoID              string      `json:"_id"`
	Department           string      `json:"department"`
	Name                 string      `json:"name"`
	Amount               core.Amount `json:"amount"`
	Type                 string      `json:"type"`
	Comment              string      `json:"comment"`
	TransactionDate      string      `json:"transactionDate"`
	TransactionDateSnake string      `json:"transaction_date"`
	Date                 string      `json:"date"`
	CreatedAt            string      `json:"createdAt"`
	CreatedAtSnake       string      `json:"created_at"`
	IsLocked             *bool       `json:"isLocked"`
	Locked               *bool       `json:"locked"`
	IsLockedSnake        *bool       `json:"is_locked"`
}

// ToCore converts the wire shape. The type tag is lowercased but not
// validated; the aggregation engine ignores unknown types.
func (d *Transaction) ToCore() core.Transaction {
	tx := core.Transaction{
		ID:              FirstNonEmpty(d.ID, d.MongoID),
		Department:      strings.TrimSpace(d.Department),
		Name:            d.Name,
		Amount:          d.Amount,
		Type:            core.TransactionType(strings.ToLower(strings.TrimSpace(d.Type))),
		Comment:         d.Comment,
		TransactionDate: FirstNonEmpty(d.TransactionDate, d.TransactionDateSnake),
		LegacyDate:      d.Date,
		CreatedAt:       FirstNonEmpty(d.CreatedAt, d.CreatedAtSnake),
	}
	for _, b := range []*bool{d.IsLocked, d.Locked, d.IsLockedSnake} {
		if b != nil {
			tx.Locked = *b
			break
		}
	}
	return tx
}

// TransactionList decodes {"data": [...]}, {"data": {"transactions": [...]}},
// {"transactions": [...]} or a bare array.
type TransactionList struct {
	items []Transaction
}

// Transactions returns the decoded list converted to core transactions.
func (l *TransactionList) Transactions() []core.Transaction {
	out := make([]core.Transaction, 0, len(l.items))
	for i := range l.items {
		out = append(out, l.items[i].ToCore())
	}
	return out
}

func (l *TransactionList) UnmarshalJSON(b []byte) error {
	items, err := decodeList[Transaction](b, "transactions")
	if err != nil {
		return err
	}
	l.items = items
	return nil
}

// TransactionEnvelope decodes a single transaction, bare or wrapped in
// "data" or "transaction".
type TransactionEnvelope struct {
	tx *Transaction
}

func (e *TransactionEnvelope) Transaction() (core.Transaction, bool) {
	if e.tx == nil {
		return core.Transaction{}, false
	}
	return e.tx.ToCore(), true
}

func (e *TransactionEnvelope) UnmarshalJSON(b []byte) error {
	tx, err := decodeOne[Transaction](b, "transaction", func(t *Transaction) bool {
		return t.ID == "" && t.MongoID == ""
	})
	if err != nil {
		return err
	}
	e.tx = tx
	return nil
}

// decodeList finds an array at the top level, under "data", under key, or
// under data.key. Anything else decodes as an empty list.
func decodeList[T any](b []byte, key string) ([]T, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	if b[0] == '[' {
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	for _, k := range []string{"data", key} {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		if raw[0] == '[' {
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			return items, nil
		}
		if raw[0] == '{' {
			if items, err := decodeList[T](raw, key); err == nil && items != nil {
				return items, nil
			}
		}
	}
	return nil, nil
}

// decodeOne finds a single object at the top level, under "data" or under key.
func decodeOne[T any](b []byte, key string, empty func(*T) bool) (*T, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	for _, k := range []string{"data", key} {
		raw, ok := obj[k]
		if !ok || len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '{' {
			continue
		}
		var inner T
		if err := json.Unmarshal(raw, &inner); err == nil && !empty(&inner) {
			return &inner, nil
		}
		if nested, err := decodeOne[T](raw, key, empty); err == nil && nested != nil {
			return nested, nil
		}
	}
	var bare T
	if err := json.Unmarshal(b, &bare); err != nil {
		return nil, err
	}
	if empty(&bare) {
		return nil, nil
	}
	return &bare, nil
}

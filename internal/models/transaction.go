package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one row of the uploaded sales log.
type Transaction struct {
	Date     time.Time
	Product  string
	Quantity int
	Revenue  decimal.Decimal
	Month    MonthKey
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Index returns a monotonically increasing ordinal for the month.
func (m MonthKey) Index() int {
	return m.Year*12 + int(m.Month) - 1
}

func (m MonthKey) Before(o MonthKey) bool {
	return m.Index() < o.Index()
}

func (m MonthKey) Next() MonthKey {
	if m.Month == time.December {
		return MonthKey{Year: m.Year + 1, Month: time.January}
	}
	return MonthKey{Year: m.Year, Month: m.Month + 1}
}

func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MonthKey) UnmarshalText(b []byte) error {
	t, err := time.Parse("2006-01", string(b))
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", b, err)
	}
	*m = MonthOf(t)
	return nil
}

// Table is an immutable, file-ordered set of transactions.
type Table struct {
	rows []Transaction
}

// NewTable copies rows into a table and derives each row's month.
func NewTable(rows []Transaction) *Table {
	out := make([]Transaction, len(rows))
	for i, r := range rows {
		r.Month = MonthOf(r.Date)
		out[i] = r
	}
	return &Table{rows: out}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of the table rows in file order.
func (t *Table) Rows() []Transaction {
	if t == nil {
		return nil
	}
	out := make([]Transaction, len(t.rows))
	copy(out, t.rows)
	return out
}

// Each calls fn for every row in file order without copying.
func (t *Table) Each(fn func(Transaction)) {
	if t == nil {
		return
	}
	for _, r := range t.rows {
		fn(r)
	}
}

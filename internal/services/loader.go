package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

const (
	ColumnDate     = "Date"
	ColumnProduct  = "Product"
	ColumnQuantity = "Quantity"
	ColumnRevenue  = "Revenue"
)

var requiredColumns = []string{ColumnDate, ColumnProduct, ColumnQuantity, ColumnRevenue}

// Month-first for the slash layout, matching what spreadsheet exports produce.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

type columnIndex struct {
	date, product, quantity, revenue int
	width                            int
}

// LoadTable reads a comma-separated sales log into a Table. The load is all
// or nothing: any bad row fails it with a MALFORMED_INPUT error.
func LoadTable(ctx context.Context, r io.Reader) (*models.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.MalformedInputWrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.MalformedInput("input is empty, expected a header with columns %s", strings.Join(requiredColumns, ", "))
	}

	cols, err := resolveColumns(records[0])
	if err != nil {
		return nil, err
	}

	body := records[1:]
	rows := make([]models.Transaction, len(body))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(body); start += batchSize {
		end := min(start+batchSize, len(body))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				tx, err := parseRow(body[i], cols)
				if err != nil {
					// +2: one for the header, one for 1-based numbering
					return errors.MalformedInputWrap(err, "line %d", i+2)
				}
				rows[i] = tx
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return models.NewTable(rows), nil
}

func LoadTableFile(ctx context.Context, path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return LoadTable(ctx, f)
}

func resolveColumns(header []string) (columnIndex, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columnIndex{}, errors.MalformedInput("missing required column(s): %s", strings.Join(missing, ", "))
	}

	cols := columnIndex{
		date:     idx[ColumnDate],
		product:  idx[ColumnProduct],
		quantity: idx[ColumnQuantity],
		revenue:  idx[ColumnRevenue],
	}
	cols.width = max(cols.date, cols.product, cols.quantity, cols.revenue) + 1
	return cols, nil
}

func parseRow(record []string, cols columnIndex) (models.Transaction, error) {
	if len(record) < cols.width {
		return models.Transaction{}, fmt.Errorf("expected at least %d fields, got %d", cols.width, len(record))
	}

	date, err := parseDate(record[cols.date])
	if err != nil {
		return models.Transaction{}, err
	}

	product := strings.TrimSpace(record[cols.product])
	if product == "" {
		return models.Transaction{}, fmt.Errorf("empty %s", ColumnProduct)
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(record[cols.quantity]))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid %s %q", ColumnQuantity, record[cols.quantity])
	}
	if quantity < 0 {
		return models.Transaction{}, fmt.Errorf("negative %s %d", ColumnQuantity, quantity)
	}

	revenue, err := decimal.NewFromString(strings.TrimSpace(record[cols.revenue]))
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid %s %q", ColumnRevenue, record[cols.revenue])
	}
	if revenue.IsNegative() {
		return models.Transaction{}, fmt.Errorf("negative %s %s", ColumnRevenue, revenue)
	}

	return models.Transaction{
		Date:     date,
		Product:  product,
		Quantity: quantity,
		Revenue:  revenue,
	}, nil
}

// parseDate returns the calendar date at midnight UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable %s %q", ColumnDate, s)
}

package compose

import (
	"errors"
	"fmt"
	"strings"

	"proposalkit/internal/docx"
	"proposalkit/internal/pricing"
)

var ErrUnknownPolicy = errors.New("compose: unknown row policy")

// RowPolicy decides which table rows count as empty after substitution. Its
// cell indexes are grid columns, so merged cells count once per column.
type RowPolicy struct {
	Name  string
	empty func(cells []*docx.Cell) bool
}

var (
	// HeaderCurrencyPolicy keeps "Description" header rows and drops rows
	// whose third cell is blank, "0", or a currency symbol followed by "0".
	HeaderCurrencyPolicy = RowPolicy{Name: "header_currency", empty: headerCurrencyEmpty}
	// SecondColumnPolicy drops rows whose second cell is blank.
	SecondColumnPolicy = RowPolicy{Name: "second_column", empty: secondColumnEmpty}
)

// DefaultPolicy is used when a caller passes the zero RowPolicy.
var DefaultPolicy = HeaderCurrencyPolicy

// PolicyByName resolves a configured policy name. An empty name selects
// DefaultPolicy.
func PolicyByName(name string) (RowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultPolicy, nil
	case HeaderCurrencyPolicy.Name:
		return HeaderCurrencyPolicy, nil
	case SecondColumnPolicy.Name:
		return SecondColumnPolicy, nil
	default:
		return RowPolicy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// RemoveEmptyRows deletes the rows policy marks as empty and returns how many
// were removed. Rows are removed tail to head; running it again is a no-op.
func RemoveEmptyRows(table *docx.Table, policy RowPolicy) int {
	if policy.empty == nil {
		policy = DefaultPolicy
	}
	var marked []*docx.Row
	for _, row := range table.Rows() {
		if policy.empty(row.GridCells()) {
			marked = append(marked, row)
		}
	}
	removed := 0
	for i := len(marked) - 1; i >= 0; i-- {
		if table.RemoveRow(marked[i]) {
			removed++
		}
	}
	return removed
}

var zeroValues = func() map[string]struct{} {
	m := map[string]struct{}{"": {}, "0": {}}
	for _, sym := range pricing.Symbols() {
		m[sym+"0"] = struct{}{}
	}
	return m
}()

func headerCurrencyEmpty(cells []*docx.Cell) bool {
	if len(cells) == 0 {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(cells[0].Text()), "description") {
		return false
	}
	if len(cells) <= 2 {
		return false
	}
	_, zero := zeroValues[strings.TrimSpace(cells[2].Text())]
	return zero
}

func secondColumnEmpty(cells []*docx.Cell) bool {
	if len(cells) <= 1 {
		return false
	}
	return strings.TrimSpace(cells[1].Text()) == ""
}

package dataset

import (
	"time"

	"ctox-dashboard/internal/tabular"
)

const (
	// companyActiveDays is the longest gap since a voucher or non-voucher
	// collection for a company to count as active
	companyActiveDays = 365
	// labActiveDays is the longest gap since the last collection for a lab
	labActiveDays = 90
	// missingDays stands in for an absent or non-numeric days counter
	missingDays = 9999
)

// ProcessCompanies normalizes and classifies the company roster. The input is
// not modified.
//
// A company is active when the smaller of its two days-without-collection
// counters is at most 365. A company failing that test is still active when
// its accumulated voucher plus non-voucher collections are above zero.
func ProcessCompanies(raw *tabular.Table) *tabular.Table {
	t := NormalizeColumns(raw)
	if t.Empty() {
		return t
	}

	t.Set(ColVouchers, numberOrZero(ColVouchers))
	t.Set(ColNonVoucher, numberOrZero(ColNonVoucher))
	t.Set(ColTotal, func(r tabular.Row) any {
		return r[ColVouchers].(float64) + r[ColNonVoucher].(float64)
	})
	t.Set(ColCollections2025, func(r tabular.Row) any {
		return tabular.NumberOr(r[ColVouchers2025], 0) + tabular.NumberOr(r[ColNonVoucher2025], 0)
	})

	t.Set(ColDaysMin, func(r tabular.Row) any {
		return min(tabular.NumberOr(r[ColDaysVoucher], missingDays), tabular.NumberOr(r[ColDaysNonVoucher], missingDays))
	})
	t.Set(ColStatus, func(r tabular.Row) any {
		if r[ColDaysMin].(float64) <= companyActiveDays {
			return StatusActive
		}
		return StatusInactive
	})
	// override: any accumulated collection re-activates the company
	for _, r := range t.Rows {
		if r[ColDaysMin].(float64) > companyActiveDays && r[ColTotal].(float64) > 0 {
			r[ColStatus] = StatusActive
		}
	}

	hasVoucher, hasNonVoucher := t.Has(ColLastVoucher), t.Has(ColLastNonVoucher)
	if hasVoucher {
		t.Set(ColLastVoucher, dateOrNil(ColLastVoucher))
	}
	if hasNonVoucher {
		t.Set(ColLastNonVoucher, dateOrNil(ColLastNonVoucher))
	}
	if hasVoucher || hasNonVoucher {
		t.Set(ColLastCollection, func(r tabular.Row) any {
			return latest(r[ColLastVoucher], r[ColLastNonVoucher])
		})
	}

	parseDates(t, ColAccreditedAt)
	return t
}

// ProcessLabs normalizes and classifies the lab roster. The input is not
// modified.
//
// The status comes from the first available source: the "ativo em coletas"
// flag, then "dias sem coleta" <= 90, then accumulated collections above zero.
func ProcessLabs(raw *tabular.Table) *tabular.Table {
	t := NormalizeColumns(raw)
	if t.Empty() {
		return t
	}

	t.Set(ColCollections, numberOrZero(ColCollections))

	switch {
	case t.Has(ColActiveFlag):
		t.Set(ColStatus, func(r tabular.Row) any {
			return statusOf(tabular.Truthy(r[ColActiveFlag]))
		})
	case t.Has(ColDaysWithoutColl):
		t.Set(ColStatus, func(r tabular.Row) any {
			return statusOf(tabular.NumberOr(r[ColDaysWithoutColl], missingDays) <= labActiveDays)
		})
	default:
		t.Set(ColStatus, func(r tabular.Row) any {
			return statusOf(r[ColCollections].(float64) > 0)
		})
	}

	if t.Has(ColCollections2025) {
		t.Set(ColCollectionsYear, numberOrZero(ColCollections2025))
	} else {
		t.Set(ColCollectionsYear, func(r tabular.Row) any { return r[ColCollections] })
	}

	parseDates(t, ColAccreditedAt, ColLastCollectionDate)
	return t
}

func statusOf(active bool) string {
	if active {
		return StatusActive
	}
	return StatusInactive
}

func numberOrZero(column string) func(tabular.Row) any {
	return func(r tabular.Row) any {
		return tabular.NumberOr(r[column], 0)
	}
}

func dateOrNil(column string) func(tabular.Row) any {
	return func(r tabular.Row) any {
		if d, ok := tabular.Date(r[column]); ok {
			return d
		}
		return nil
	}
}

// parseDates converts the parsable cells of display-only date columns and
// leaves the rest untouched
func parseDates(t *tabular.Table, columns ...string) {
	for _, column := range columns {
		if !t.Has(column) {
			continue
		}
		for _, r := range t.Rows {
			if d, ok := tabular.Date(r[column]); ok {
				r[column] = d
			}
		}
	}
}

// latest returns the later of two optional dates, nil when both are absent
func latest(a, b any) any {
	da, okA := a.(time.Time)
	db, okB := b.(time.Time)
	switch {
	case okA && okB:
		if db.After(da) {
			return db
		}
		return da
	case okA:
		return da
	case okB:
		return db
	}
	return nil
}

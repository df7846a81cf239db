package engine

import (
	"strconv"
	"strings"

	"superstore-dashboard-api/pkg/models"
)

// AllValue is the selector value that leaves a dimension unconstrained.
const AllValue = "all"

// Apply returns the subset of records matching every active dimension of the
// selection. Dimension predicates are AND-combined; an empty or "all" value
// imposes no constraint. An empty result is a valid outcome, not an error.
func Apply(records []models.SalesRecord, sel models.FilterSelection) []models.SalesRecord {
	if !Active(sel) {
		return records
	}

	year, month := selectedYearMonth(sel)

	view := make([]models.SalesRecord, 0, len(records))
	for _, rec := range records {
		if !matchValue(sel.Region, rec.Region) {
			continue
		}
		if !matchValue(sel.Segment, rec.Segment) {
			continue
		}
		if !matchValue(sel.Category, rec.Category) {
			continue
		}
		if year != 0 && rec.OrderDate.Year() != year {
			continue
		}
		if month != 0 && int(rec.OrderDate.Month()) != month {
			continue
		}
		view = append(view, rec)
	}
	return view
}

// Active reports whether the selection constrains at least one dimension.
func Active(sel models.FilterSelection) bool {
	for _, v := range []string{sel.Region, sel.Segment, sel.Category, sel.Year, sel.Month} {
		if !isAll(v) {
			return true
		}
	}
	return false
}

// Matches reports whether a single record satisfies every active predicate
// of the selection.
func Matches(rec models.SalesRecord, sel models.FilterSelection) bool {
	year, month := selectedYearMonth(sel)
	if !matchValue(sel.Region, rec.Region) || !matchValue(sel.Segment, rec.Segment) || !matchValue(sel.Category, rec.Category) {
		return false
	}
	if year != 0 && rec.OrderDate.Year() != year {
		return false
	}
	if month != 0 && int(rec.OrderDate.Month()) != month {
		return false
	}
	return true
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, AllValue)
}

func matchValue(selected, actual string) bool {
	if isAll(selected) {
		return true
	}
	return strings.EqualFold(selected, actual)
}

// selectedYearMonth parses the year/month dimensions. Unparseable values are
// treated as unconstrained rather than failing the request.
func selectedYearMonth(sel models.FilterSelection) (int, int) {
	var year, month int
	if !isAll(sel.Year) {
		if y, err := strconv.Atoi(sel.Year); err == nil {
			year = y
		}
	}
	if !isAll(sel.Month) {
		if m, err := strconv.Atoi(sel.Month); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	return year, month
}

// DistinctValues returns the sorted distinct values of each filterable
// dimension, used to populate the dashboard's selector controls.
func DistinctValues(records []models.SalesRecord) map[string][]string {
	regions := map[string]bool{}
	segments := map[string]bool{}
	categories := map[string]bool{}
	years := map[string]bool{}

	for _, rec := range records {
		if rec.Region != "" {
			regions[rec.Region] = true
		}
		if rec.Segment != "" {
			segments[rec.Segment] = true
		}
		if rec.Category != "" {
			categories[rec.Category] = true
		}
		years[strconv.Itoa(rec.OrderDate.Year())] = true
	}

	months := make([]string, 0, 12)
	for m := 1; m <= 12; m++ {
		months = append(months, strconv.Itoa(m))
	}

	return map[string][]string{
		"region":   sortedKeys(regions),
		"segment":  sortedKeys(segments),
		"category": sortedKeys(categories),
		"year":     sortedKeys(years),
		"month":    months,
	}
}

package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// day-first layouts tried in order after ISO forms
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
}

// maxExcelSerial is 9999-12-31 in the 1900 date system
const maxExcelSerial = 2958465

// Number coerces a cell to float64. Strings accept both "1234.5" and the
// Brazilian "1.234,5" notation. ok is false for missing or non-numeric cells.
func Number(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return val, !math.IsNaN(val)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(val)
	default:
		return 0, false
	}
}

// NumberOr coerces a cell to float64, returning def when it is not numeric
func NumberOr(v any, def float64) float64 {
	if n, ok := Number(v); ok {
		return n
	}
	return def
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n, !math.IsNaN(n)
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, !math.IsNaN(n)
		}
	}
	return 0, false
}

// Date parses a cell as a date. Numbers are read as Excel serial dates and
// strings are parsed day-first. ok is false for anything unparsable.
func Date(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, !val.IsZero()
	case float64:
		return serialDate(val)
	case int:
		return serialDate(float64(val))
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return time.Time{}, false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(n)
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func serialDate(n float64) (time.Time, bool) {
	if n <= 0 || n > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Truthy reports whether a cell holds a boolean true: the bool itself, the
// text "true" in any case, or the number 1.
func Truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		s := strings.TrimSpace(val)
		if strings.EqualFold(s, "true") {
			return true
		}
		n, err := strconv.ParseFloat(s, 64)
		return err == nil && n == 1
	default:
		n, ok := Number(v)
		return ok && n == 1
	}
}

// String renders a cell as trimmed text, "" for nil
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

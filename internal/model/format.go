package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatValue renders a mechanism value the way it appears in source
// statements: integral values keep one decimal ("100.0"), others use the
// shortest exact representation ("12.5").
func FormatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Stringify renders a field value for template and prompt substitution.
// Lists are joined with ", " and nil renders as the empty string.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case float64:
		return FormatValue(x)
	case *float64:
		if x == nil {
			return ""
		}
		return FormatValue(*x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

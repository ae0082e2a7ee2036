package repository

import "time"

// sqlite keeps timestamps as text, so ORDER BY and range filters only agree
// with instant order when every stored value shares one offset.
func storedTime(t time.Time) time.Time {
	return t.UTC()
}

func storedTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := storedTime(*t)
	return &u
}

// storedFields normalizes the time values of a column map before an update.
func storedFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		switch tv := v.(type) {
		case time.Time:
			out[k] = storedTime(tv)
		case *time.Time:
			out[k] = storedTimePtr(tv)
		default:
			out[k] = v
		}
	}
	return out
}

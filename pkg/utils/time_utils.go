// utils/timeutil.go
package utils

import "time"

// India Standard Time (+05:30)
var istLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Asia/Kolkata"); err == nil {
		return loc
	}
	return time.FixedZone("IST", 5*3600+1800)
}()

// FormatRFC3339IST renders t in IST; zero time renders as "".
func FormatRFC3339IST(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(istLoc).Format(time.RFC3339) // e.g. 2025-09-24T15:12:00+05:30
}

package postgresadapter

import "time"

// SystemClock reports UTC wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

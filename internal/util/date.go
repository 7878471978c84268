package util

import "time"

// DateKey is the YYYYMMDD key a day dataset is stored under.
func DateKey(t time.Time) string {
	return t.Format("20060102")
}

// HourStamp is the YYYYMMDDHH capture stamp written into every record.
func HourStamp(t time.Time) string {
	return t.Format("2006010215")
}

// VerboseStamp is the human-readable anchor embedded in extraction prompts so
// relative dates come back resolved to absolute YYYYMMDD form.
func VerboseStamp(t time.Time) string {
	return t.Format("2006年01月02日 15時")
}

// PreviousDay returns the date key of the day before the given YYYYMMDD key.
func PreviousDay(dateKey string) (string, error) {
	t, err := time.Parse("20060102", dateKey)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -1).Format("20060102"), nil
}

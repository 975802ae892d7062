package fetch

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"flarewatch/pkg/errors"
)

// FirstYear is the earliest year the state publishes volumes for.
const FirstYear = 1951

// Month is one reporting period.
type Month struct {
	Year  int
	Month time.Month
}

// String renders the month as YYYY-MM, the key used for files and storage.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label renders the month as MM-YYYY, the form used in the source tables.
func (m Month) Label() string {
	return fmt.Sprintf("%02d-%04d", int(m.Month), m.Year)
}

func (m Month) next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

func (m Month) after(o Month) bool {
	return m.Year > o.Year || (m.Year == o.Year && m.Month > o.Month)
}

// ValidateStart checks a requested start period against the publication range.
func ValidateStart(year, month int, now time.Time) error {
	if year < FirstYear || year > now.Year() {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("start year must be between %d and %d", FirstYear, now.Year())).
			WithContext("start_year", year)
	}
	if month < 1 || month > 12 {
		return errors.New(errors.ErrCodeInvalidInput, "start month must be between 1 and 12").
			WithContext("start_month", month)
	}
	if year == now.Year() && time.Month(month) > now.Month() {
		return errors.New(errors.ErrCodeInvalidInput, "start month is in the future").
			WithContext("start_month", month)
	}
	return nil
}

// ParseStart parses user-entered start values and validates them.
func ParseStart(year, month string, now time.Time) (int, int, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0, 0, errors.Wrap(err, errors.ErrCodeInvalidInput, "start year is not a number")
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return 0, 0, errors.Wrap(err, errors.ErrCodeInvalidInput, "start month is not a number")
	}
	return y, m, ValidateStart(y, m, now)
}

// BuildMonths lists every month from the start period through now's month.
func BuildMonths(startYear, startMonth int, now time.Time) []Month {
	end := Month{Year: now.Year(), Month: now.Month()}
	var months []Month
	for m := (Month{Year: startYear, Month: time.Month(startMonth)}); !m.after(end); m = m.next() {
		months = append(months, m)
	}
	return months
}

// OutputDir names the directory for one gathering run under base.
func OutputDir(base string, now time.Time) string {
	return filepath.Join(base, "ND Oil-Gas Data--Gathered "+now.Format("Jan-02-2006_15.04.05"))
}

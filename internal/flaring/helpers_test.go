package flaring

import "time"

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func rec(well int64, pool string, date time.Time, flared string) ProductionRecord {
	return ProductionRecord{
		WellID:       well,
		APINo:        33053000000000 + well,
		Pool:         pool,
		Date:         date,
		DaysProduced: 30,
		GasVolume:    MustVolume("100"),
		GasSold:      MustVolume("60"),
		GasFlared:    MustVolume(flared),
	}
}

// scenarioRecords is well 100, pool A: first production Jan 2018, one record
// on the cutoff and one after it.
func scenarioRecords() []ProductionRecord {
	return []ProductionRecord{
		rec(100, "A", month(2018, time.January), "10"),
		rec(100, "A", month(2019, time.June), "20"),
		rec(100, "A", month(2019, time.January), "5"),
	}
}

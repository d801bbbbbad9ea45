// Package ingest reads RawHealthInput rows from CSV and XLSX files. The
// header row names fields by their JSON names; unknown columns are ignored.
package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lifelens/lifelens-cli/internal/model"
)

// ErrNoRows is returned when a file has a header but no data.
var ErrNoRows = eris.New("ingest: no data rows")

type setter func(in *model.RawHealthInput, v string) bool

func floatField(get func(*model.RawHealthInput) **float64) setter {
	return func(in *model.RawHealthInput, v string) bool {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		*get(in) = &f
		return true
	}
}

func intField(get func(*model.RawHealthInput) **int) setter {
	return func(in *model.RawHealthInput, v string) bool {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		n := int(math.Round(f))
		*get(in) = &n
		return true
	}
}

func boolField(get func(*model.RawHealthInput) **bool) setter {
	return func(in *model.RawHealthInput, v string) bool {
		var b bool
		switch strings.ToLower(v) {
		case "1", "t", "true", "y", "yes":
			b = true
		case "0", "f", "false", "n", "no":
			b = false
		default:
			return false
		}
		*get(in) = &b
		return true
	}
}

var fields = map[string]setter{
	"age":                 floatField(func(in *model.RawHealthInput) **float64 { return &in.Age }),
	"bmi":                 floatField(func(in *model.RawHealthInput) **float64 { return &in.BMI }),
	"sleephoursavg7d":     floatField(func(in *model.RawHealthInput) **float64 { return &in.SleepHoursAvg7d }),
	"latescreenminsavg7d": floatField(func(in *model.RawHealthInput) **float64 { return &in.LateScreenMinsAvg7d }),
	"caffeinemgday":       floatField(func(in *model.RawHealthInput) **float64 { return &in.CaffeineMgDay }),
	"sedentaryhoursday":   floatField(func(in *model.RawHealthInput) **float64 { return &in.SedentaryHoursDay }),
	"alcoholunitsweek":    floatField(func(in *model.RawHealthInput) **float64 { return &in.AlcoholUnitsWeek }),
	"aqidailymax":         floatField(func(in *model.RawHealthInput) **float64 { return &in.AQIDailyMax }),

	"famhxhypertension": intField(func(in *model.RawHealthInput) **int { return &in.FamHxHypertension }),
	"famhxdiabetes":     intField(func(in *model.RawHealthInput) **int { return &in.FamHxDiabetes }),
	"stepsavg7d":        intField(func(in *model.RawHealthInput) **int { return &in.StepsAvg7d }),
	"latemealsperweek":  intField(func(in *model.RawHealthInput) **int { return &in.LateMealsPerWeek }),

	"wateradvisoryflag":  boolField(func(in *model.RawHealthInput) **bool { return &in.WaterAdvisoryFlag }),
	"allergenshightoday": boolField(func(in *model.RawHealthInput) **bool { return &in.AllergensHighToday }),

	"sexatbirth": func(in *model.RawHealthInput, v string) bool {
		in.SexAtBirth = model.SexAtBirth(strings.ToLower(v))
		return true
	},
	"smokingstatus": func(in *model.RawHealthInput, v string) bool {
		in.SmokingStatus = model.SmokingStatus(strings.ToLower(v))
		return true
	},
	"restinghrtrend14d": func(in *model.RawHealthInput, v string) bool {
		in.RestingHRTrend14d = model.Trend(strings.ToLower(v))
		return true
	},
	"hrvtrend14d": func(in *model.RawHealthInput, v string) bool {
		in.HRVTrend14d = model.Trend(strings.ToLower(v))
		return true
	},
	"moodtrend14d": func(in *model.RawHealthInput, v string) bool {
		in.MoodTrend14d = model.Trend(strings.ToLower(v))
		return true
	},
}

// mapRows converts a header plus data rows into inputs. Blank rows are
// skipped; blank cells leave the field absent.
func mapRows(source string, header []string, rows [][]string) ([]model.RawHealthInput, error) {
	cols := make([]setter, len(header))
	known := 0
	for i, h := range header {
		if s, ok := fields[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[i] = s
			known++
		}
	}
	if known == 0 {
		zap.L().Warn("ingest: header has no known columns", zap.String("source", source), zap.Strings("header", header))
	}

	out := make([]model.RawHealthInput, 0, len(rows))
	bad := 0
	for _, row := range rows {
		if blank(row) {
			continue
		}
		var in model.RawHealthInput
		for i, cell := range row {
			if i >= len(cols) || cols[i] == nil {
				continue
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			if !cols[i](&in, v) {
				bad++
			}
		}
		out = append(out, in)
	}

	if bad > 0 {
		zap.L().Warn("ingest: unparseable cells left empty", zap.String("source", source), zap.Int("cells", bad))
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

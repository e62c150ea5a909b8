package adherence

import (
	"context"
	"fmt"
	"math"
	"sort"

	apperrors "github.com/gmsas95/medtrack/internal/errors"
	"github.com/gmsas95/medtrack/internal/medication"
)

type DailySummary struct {
	Date   medication.Date `json:"date"`
	Taken  int             `json:"taken"`
	Missed int             `json:"missed"`
	Total  int             `json:"total"`
}

type Summary struct {
	From   medication.Date `json:"from_date"`
	To     medication.Date `json:"to_date"`
	Total  int             `json:"total"`
	Taken  int             `json:"taken"`
	Missed int             `json:"missed"`
	// Rate is taken/(taken+missed) as a percentage, 0 when nothing was recorded.
	Rate  float64        `json:"adherence_rate"`
	Daily []DailySummary `json:"daily"`
}

// Aggregator rolls ledger records up into adherence figures.
type Aggregator struct {
	ledger LedgerStore
}

func NewAggregator(ledger LedgerStore) *Aggregator {
	return &Aggregator{ledger: ledger}
}

// Summarize counts the user's records between start and end inclusive. Days
// without any record are left out of Daily.
func (a *Aggregator) Summarize(ctx context.Context, userID string, start, end medication.Date) (*Summary, error) {
	if end.Before(start) {
		return nil, apperrors.Validation("end date %s is before start date %s", end, start)
	}

	records, err := a.ledger.ListRecordsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	sum := &Summary{From: start, To: end, Daily: []DailySummary{}}
	days := make(map[medication.Date]*DailySummary)
	for _, r := range records {
		if r.Status != StatusTaken && r.Status != StatusMissed {
			continue
		}
		day, ok := days[r.ScheduledDate]
		if !ok {
			day = &DailySummary{Date: r.ScheduledDate}
			days[r.ScheduledDate] = day
		}
		if r.Status == StatusTaken {
			sum.Taken++
			day.Taken++
		} else {
			sum.Missed++
			day.Missed++
		}
		sum.Total++
		day.Total++
	}

	for _, d := range days {
		sum.Daily = append(sum.Daily, *d)
	}
	sort.Slice(sum.Daily, func(i, j int) bool {
		return sum.Daily[i].Date.Before(sum.Daily[j].Date)
	})

	sum.Rate = Rate(sum.Taken, sum.Missed)
	return sum, nil
}

// Rate returns taken/(taken+missed)*100 rounded to two decimals.
func Rate(taken, missed int) float64 {
	denom := taken + missed
	if denom == 0 {
		return 0
	}
	return math.Round(float64(taken)/float64(denom)*10000) / 100
}

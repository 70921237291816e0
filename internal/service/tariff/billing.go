package tariff

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hryhoriev/parkgo/internal/domain"
)

var ErrInvalidInterval = errors.New("checkout must be after checkin")

// ComputeCost partitions [checkin, checkout) into segments ending on the next
// wall-clock hour boundary (or checkout, whichever comes first) and prices
// each one by the rate in force at its start instant.
//
// Per-segment amounts are rounded to 2 decimal places and the total is the
// sum of the rounded amounts, itself rounded to 2 decimal places. Rounding
// per segment, not once at the end, matches what printed receipts show.
func ComputeCost(
	checkin, checkout time.Time,
	category domain.Category,
	calendar *Calendar,
) ([]domain.Segment, float64, error) {
	const op = "tariff.ComputeCost"

	if !checkin.Before(checkout) {
		return nil, 0, fmt.Errorf("%s:%w", op, ErrInvalidInterval)
	}

	var segments []domain.Segment
	var total float64

	for cursor := checkin; cursor.Before(checkout); {
		end := cursor.Truncate(time.Hour).Add(time.Hour)
		if end.After(checkout) {
			end = checkout
		}

		hours := end.Sub(cursor).Hours()
		special := calendar.IsSpecialRate(cursor)

		rate := category.RateNormal
		if special {
			rate = category.RateSpecial
		}

		amount := round2(hours * rate)
		segments = append(segments, domain.Segment{
			From:    cursor,
			To:      end,
			Hours:   round4(hours),
			Rate:    rate,
			Amount:  amount,
			Special: special,
		})

		total += amount
		cursor = end
	}

	return segments, round2(total), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

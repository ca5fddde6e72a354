package universe

import (
	"github.com/rs/zerolog"
)

const (
	// Validation thresholds
	maxPriceMultiplier    = 10.0   // Close > 10x recent average is abnormal
	minPriceMultiplier    = 0.1    // Close < 0.1x recent average is abnormal
	maxPriceChangePercent = 1000.0 // >1000% day-over-day change is a spike
	minPriceChangePercent = -90.0  // <-90% day-over-day change is a crash
	contextWindowDays     = 30     // Use last 30 valid closes for context
)

// InterpolationLog records when a close was replaced
type InterpolationLog struct {
	Date              string
	OriginalClose     float64
	InterpolatedClose float64
	Method            string // "linear", "forward_fill", "backward_fill"
	Reason            string
}

// PriceValidator rejects abnormal closes and repairs them from neighbouring valid closes.
type PriceValidator struct {
	log zerolog.Logger
}

// NewPriceValidator creates a new price validator
func NewPriceValidator(log zerolog.Logger) *PriceValidator {
	return &PriceValidator{
		log: log.With().Str("component", "price_validator").Logger(),
	}
}

// ValidatePrice checks a close against the preceding valid closes, most recent last.
// Returns (isValid, reason).
func (v *PriceValidator) ValidatePrice(price DailyPrice, context []DailyPrice) (bool, string) {
	if price.Close <= 0 {
		return false, "non_positive_close"
	}
	if len(context) == 0 {
		return true, ""
	}

	prevClose := context[len(context)-1].Close
	if prevClose > 0 {
		changePercent := (price.Close - prevClose) / prevClose * 100.0
		if changePercent > maxPriceChangePercent {
			return false, "spike_detected"
		}
		if changePercent < minPriceChangePercent {
			return false, "crash_detected"
		}
	}

	window := context
	if len(window) > contextWindowDays {
		window = window[len(window)-contextWindowDays:]
	}
	var sum float64
	for _, p := range window {
		sum += p.Close
	}
	avg := sum / float64(len(window))

	if price.Close > avg*maxPriceMultiplier {
		return false, "price_too_high"
	}
	if price.Close < avg*minPriceMultiplier {
		return false, "price_too_low"
	}
	return true, ""
}

// ValidateAndInterpolate returns the series with every abnormal close replaced.
// Replacement is linear between the nearest valid neighbours, or a forward or backward fill at
// the edges. Series without any valid close are returned empty.
func (v *PriceValidator) ValidateAndInterpolate(prices []DailyPrice) ([]DailyPrice, []InterpolationLog) {
	valid := make([]bool, len(prices))
	reasons := make([]string, len(prices))
	var accepted []DailyPrice
	for i, p := range prices {
		ok, reason := v.ValidatePrice(p, accepted)
		valid[i] = ok
		reasons[i] = reason
		if ok {
			accepted = append(accepted, p)
		}
	}
	if len(accepted) == 0 {
		return nil, nil
	}

	out := make([]DailyPrice, len(prices))
	copy(out, prices)
	var logs []InterpolationLog

	for i := range out {
		if valid[i] {
			continue
		}
		prev, next := -1, -1
		for j := i - 1; j >= 0; j-- {
			if valid[j] {
				prev = j
				break
			}
		}
		for j := i + 1; j < len(out); j++ {
			if valid[j] {
				next = j
				break
			}
		}

		var method string
		switch {
		case prev >= 0 && next >= 0:
			frac := float64(i-prev) / float64(next-prev)
			out[i].Close = prices[prev].Close + frac*(prices[next].Close-prices[prev].Close)
			method = "linear"
		case prev >= 0:
			out[i].Close = prices[prev].Close
			method = "forward_fill"
		default:
			out[i].Close = prices[next].Close
			method = "backward_fill"
		}

		logs = append(logs, InterpolationLog{
			Date:              prices[i].Date,
			OriginalClose:     prices[i].Close,
			InterpolatedClose: out[i].Close,
			Method:            method,
			Reason:            reasons[i],
		})
	}

	if len(logs) > 0 {
		v.log.Debug().Int("interpolated", len(logs)).Msg("Repaired abnormal closes")
	}
	return out, logs
}

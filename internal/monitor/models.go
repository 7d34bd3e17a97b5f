package monitor

import (
	"time"
)

// Rating classifies a reading on the fixed ordered scale used for
// filtering and display.
type Rating string

const (
	RatingVeryCold Rating = "Very Cold"
	RatingCold     Rating = "Cold"
	RatingNormal   Rating = "Normal"
	RatingWarm     Rating = "Warm"
	RatingVeryHot  Rating = "Very Hot"
)

// Ratings lists all valid ratings from coldest to hottest.
var Ratings = []Rating{RatingVeryCold, RatingCold, RatingNormal, RatingWarm, RatingVeryHot}

// Interchange layouts for the tabular import/export schema.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Temperature bounds in degrees Celsius considered physically plausible
// for a reading.
const (
	MinTemperatureC = -50.0
	MaxTemperatureC = 60.0
)

// Reading is a single timestamped temperature observation.
// Date+Time need not be unique across the log.
type Reading struct {
	ID           string  `json:"id"`
	Date         string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time         string  `json:"time" validate:"required,datetime=15:04"`
	TemperatureC float64 `json:"temperatureC" validate:"gte=-50,lte=60"`
	Rating       Rating  `json:"rating" validate:"required,oneof='Very Cold' 'Cold' 'Normal' 'Warm' 'Very Hot'"`
	Notes        string  `json:"notes,omitempty"`
}

// Timestamp combines Date and Time into a single instant in UTC.
func (r Reading) Timestamp() (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, r.Date+" "+r.Time)
}

// Confidence categorizes how much a forecast point should be trusted,
// derived from the active model's fit quality and the horizon distance.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ForecastPoint is one day of an extended forecast. Forecast points are
// produced on demand and never persisted.
type ForecastPoint struct {
	Date         string     `json:"date"`
	TemperatureC float64    `json:"temperatureC"`
	Confidence   Confidence `json:"confidence"`
}

// Prediction is the primary next-value statistic, with the active
// model's in-sample R² as a displayed accuracy proxy.
type Prediction struct {
	Model        string  `json:"model"`
	TemperatureC float64 `json:"temperatureC"`
	RSquared     float64 `json:"rSquared"`
}

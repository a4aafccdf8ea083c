package parser

import (
	"time"

	"github.com/iplan/cellact/internal/phone"
	"go.uber.org/zap"
)

// Timestamp layouts used by the gateway entry points.
const (
	PushDateLayout = "20060102150405"      // YYYYMMDDHHMMSS
	PullDateLayout = "02/01/2006 15:04:05" // DD/MM/YYYY HH:MM:SS
)

// DatePolicy decides what happens when a reply timestamp cannot be parsed.
type DatePolicy string

const (
	// DateStrict fails the reply with code 603.
	DateStrict DatePolicy = "strict"
	// DateLenient logs a warning and stamps the reply with the current time.
	DateLenient DatePolicy = "lenient"
)

func (p DatePolicy) Valid() bool { return p == DateStrict || p == DateLenient }

// Options carries everything a parser needs besides its input. Location is
// the gateway time zone in which wall clock timestamps are interpreted.
type Options struct {
	Location        *time.Location
	Plan            phone.Plan
	ReplyDatePolicy DatePolicy
	Now             func() time.Time
	Logger          *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Plan.CountryCode == "" {
		o.Plan = phone.Israel
	}
	if !o.ReplyDatePolicy.Valid() {
		o.ReplyDatePolicy = DateStrict
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

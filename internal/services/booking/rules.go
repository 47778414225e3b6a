package booking

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

type Actor string

const (
	ActorClient     Actor = "client"
	ActorFreelancer Actor = "freelancer"
	ActorGateway    Actor = "gateway"
)

// transitions lists who may move a booking from one status to another.
var transitions = map[models.BookingStatus]map[models.BookingStatus][]Actor{
	models.BookingPendingPayment: {
		models.BookingPaid:      {ActorGateway},
		models.BookingCancelled: {ActorClient, ActorFreelancer},
	},
	models.BookingPaid: {
		models.BookingCompleted: {ActorFreelancer},
	},
}

func CanTransition(from, to models.BookingStatus, actor Actor) bool {
	for _, a := range transitions[from][to] {
		if a == actor {
			return true
		}
	}
	return false
}

var errNoDigits = errors.New("price has no digits")

// cents matches a one or two digit fraction at the end of a price. Three
// digits after a separator are a thousands group.
var cents = regexp.MustCompile(`[.,]\d{1,2}\s*$`)

// ParsePrice reads the free-text price of a pricing tier as a whole amount,
// keeping digits only: "Rp 150.000" and "150,000" are both 150000. A
// trailing fraction is dropped, so "Rp 1.500,50" is 1500.
func ParsePrice(s string) (int64, error) {
	s = cents.ReplaceAllString(s, "")
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, errNoDigits
	}
	return strconv.ParseInt(b.String(), 10, 64)
}

// SelectPricing picks the tier named level, case-insensitively. An empty
// level is accepted when the service has a single tier.
func SelectPricing(tiers []models.Pricing, level string) (models.Pricing, bool) {
	level = strings.TrimSpace(level)
	if level == "" {
		if len(tiers) == 1 {
			return tiers[0], true
		}
		return models.Pricing{}, false
	}
	for _, p := range tiers {
		if strings.EqualFold(strings.TrimSpace(p.Level), level) {
			return p, true
		}
	}
	return models.Pricing{}, false
}

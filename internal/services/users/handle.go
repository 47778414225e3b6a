package users

import (
	"crypto/rand"
	"strings"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

const handleAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateHandle returns PREFIX-XXXX-XXXX with X drawn from A-Z0-9.
func GenerateHandle(prefix string) string {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = "FL"
	}

	b := make([]byte, 8)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = handleAlphabet[int(b[i])%len(handleAlphabet)]
	}
	return prefix + "-" + string(b[:4]) + "-" + string(b[4:])
}

var tierThresholds = []struct {
	min  int
	tier models.Tier
}{
	{1500, models.TierPlatinum},
	{500, models.TierGold},
	{100, models.TierSilver},
}

// TierFor maps a point total to its tier. Monotonic in points.
func TierFor(points int) models.Tier {
	for _, t := range tierThresholds {
		if points >= t.min {
			return t.tier
		}
	}
	return models.TierBronze
}

// PointsForAmount is the reward for a paid booking: one point per 10 000,
// at least one.
func PointsForAmount(amount int64) int {
	if amount <= 0 {
		return 0
	}
	p := int(amount / 10000)
	if p < 1 {
		p = 1
	}
	return p
}

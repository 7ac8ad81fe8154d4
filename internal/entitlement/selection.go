package entitlement

import (
	"time"
	"unicode/utf16"
	"valorant-missions/internal/domain"
)

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// GenerateDailyMissionSelection picks slotCount mission ids for userID on the UTC
// calendar day of now. Identical inputs always give the identical ordered result.
func GenerateDailyMissionSelection(missions []domain.Mission, userID string, slotCount int, now time.Time) []string {
	ids := make([]string, len(missions))
	for i, m := range missions {
		ids[i] = m.ID
	}
	if len(ids) <= slotCount {
		return ids
	}
	if slotCount <= 0 {
		return []string{}
	}

	rng := newLCG(DailySeed(userID, now))
	for i := len(ids) - 1; i > 0; i-- {
		j := int(rng.next() * float64(i+1))
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:slotCount]
}

// DailySeed hashes "{userID}-{YYYY-MM-DD}" with a 31x rolling hash over UTF-16 code
// units, wrapped to 32 bits.
func DailySeed(userID string, now time.Time) uint32 {
	key := userID + "-" + now.UTC().Format("2006-01-02")
	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = (h << 5) - h + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return uint32(abs)
}

type lcg struct {
	state uint64
}

func newLCG(seed uint32) *lcg {
	return &lcg{state: uint64(seed)}
}

// next returns a value in [0,1).
func (g *lcg) next() float64 {
	g.state = (g.state*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(g.state) / lcgModulus
}

package entitlement

import (
	"strings"
	"time"
	"valorant-missions/internal/domain"
)

// longer names first so "team deathmatch" wins over "deathmatch"
var knownModes = []string{
	"team deathmatch",
	"snowball fight",
	"competitive",
	"replication",
	"escalation",
	"deathmatch",
	"spike rush",
	"swiftplay",
	"premier",
	"unrated",
}

func mentionedMode(description string) string {
	d := strings.ToLower(description)
	for _, m := range knownModes {
		if strings.Contains(d, m) {
			return m
		}
	}
	return ""
}

func sameMode(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ProgressIncrement is what one match adds to a mission of the given type.
func ProgressIncrement(m domain.Mission, match domain.ValorantMatch) int {
	switch m.Type {
	case domain.MissionKills:
		return match.Kills
	case domain.MissionHeadshots:
		return match.Headshots
	case domain.MissionRounds:
		return match.RoundsWon
	case domain.MissionWins:
		if !match.Won {
			return 0
		}
		if mode := mentionedMode(m.Description); mode != "" && !sameMode(mode, match.Mode) {
			return 0
		}
		return 1
	case domain.MissionGamemode:
		if mode := mentionedMode(m.Description); mode != "" {
			if sameMode(mode, match.Mode) {
				return 1
			}
			return 0
		}
		if match.Mode != "" && strings.Contains(strings.ToLower(m.Description), strings.ToLower(match.Mode)) {
			return 1
		}
		return 0
	case domain.MissionWeapon:
		d := strings.ToLower(m.Description)
		total := 0
		for weapon, kills := range match.WeaponKills {
			if weapon != "" && strings.Contains(d, strings.ToLower(weapon)) {
				total += kills
			}
		}
		return total
	}
	return 0
}

// ApplyMatch adds a match to a user mission. Matches that did not start strictly
// after the mission's watermark are ignored, as is anything on a completed mission.
// The watermark is the later of the mission start and the last applied match, so
// matches must be applied oldest first.
func ApplyMatch(um *domain.UserMission, m domain.Mission, match domain.ValorantMatch, now time.Time) bool {
	if um.IsCompleted || !match.StartedAt.After(Watermark(um)) {
		return false
	}
	inc := ProgressIncrement(m, match)
	if inc <= 0 {
		return false
	}
	started := match.StartedAt
	um.LastMatchAt = &started
	um.Progress += inc
	um.LastUpdated = now
	if um.Progress >= m.Target {
		um.Progress = m.Target
		um.IsCompleted = true
		completed := now
		um.CompletedAt = &completed
	}
	return true
}

// Watermark is the time a match must start after to count toward um.
func Watermark(um *domain.UserMission) time.Time {
	if um.LastMatchAt != nil && um.LastMatchAt.After(um.StartedAt) {
		return *um.LastMatchAt
	}
	return um.StartedAt
}

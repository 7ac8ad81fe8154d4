package db

import (
	"database/sql"
	"time"
	"valorant-missions/internal/domain"
)

type User struct {
	ID                        string
	Email                     string
	Username                  string
	RiotPuuid                 sql.NullString
	RiotRegion                string
	RiotName                  string
	RiotTag                   string
	RiotAccountLevel          int64
	RiotCard                  string
	RiotLinkedAt              sql.NullTime
	SubTier                   string
	SubStatus                 string
	SubProvider               string
	SubProviderSubscriptionID string
	SubProviderTierID         string
	SubPeriodStart            domain.Timestamp
	SubPeriodEnd              domain.Timestamp
	MaxActiveMissions         sql.NullInt64
	AvailableSlots            sql.NullInt64
	LimitsLastRefresh         domain.Timestamp
	LimitsNextRefresh         domain.Timestamp
	DailySelectedIds          string
	DailyLastRefresh          domain.Timestamp
	DailyNextRefresh          domain.Timestamp
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

type Mission struct {
	ID          string
	Title       string
	Description string
	Type        string
	Target      int64
	Points      int64
	Difficulty  string
	IsActive    bool
	CreatedAt   time.Time
}

type UserMission struct {
	ID          string
	UserID      string
	MissionID   string
	Progress    int64
	IsCompleted bool
	StartedAt   time.Time
	AcceptedAt  time.Time
	LastUpdated time.Time
	CompletedAt sql.NullTime
	LastMatchAt sql.NullTime
}

type ValorantMatch struct {
	UserID       string
	MatchID      string
	Map          string
	Mode         string
	Queue        string
	StartedAt    time.Time
	Kills        int64
	Deaths       int64
	Assists      int64
	Headshots    int64
	Score        int64
	Won          bool
	RoundsWon    int64
	RoundsPlayed int64
	Agent        string
	WeaponKills  string
	CreatedAt    time.Time
}

type WebhookLog struct {
	ID             string
	Provider       string
	EventType      string
	UserID         string
	SubscriptionID string
	Outcome        string
	Message        string
	Payload        string
	CreatedAt      time.Time
}

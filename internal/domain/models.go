package domain

import (
	"time"
)

type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusInactive  SubscriptionStatus = "inactive"
	StatusCancelled SubscriptionStatus = "cancelled"
)

type BillingProvider string

const (
	ProviderNone   BillingProvider = "none"
	ProviderClerk  BillingProvider = "clerk"
	ProviderKofi   BillingProvider = "kofi"
	ProviderManual BillingProvider = "manual"
)

type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Username      string        `json:"username"`
	RiotAccount   *RiotAccount  `json:"riotId,omitempty"`
	Subscription  Subscription  `json:"subscription"`
	MissionLimits MissionLimits `json:"missionLimits"`
	DailyMissions DailyMissions `json:"dailyMissions"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type RiotAccount struct {
	Puuid        string     `json:"puuid"`
	Region       string     `json:"region"`
	Name         string     `json:"name"`
	Tag          string     `json:"tag"`
	AccountLevel int        `json:"accountLevel"`
	Card         CardAssets `json:"card"`
	LinkedAt     time.Time  `json:"linkedAt"`
}

type CardAssets struct {
	ID    string `json:"id,omitempty"`
	Small string `json:"small,omitempty"`
	Large string `json:"large,omitempty"`
	Wide  string `json:"wide,omitempty"`
}

type Subscription struct {
	Tier                   Tier               `json:"tier"`
	Status                 SubscriptionStatus `json:"status"`
	Provider               BillingProvider    `json:"provider"`
	ProviderSubscriptionID string             `json:"providerSubscriptionId,omitempty"`
	ProviderTierID         string             `json:"providerTierId,omitempty"`
	CurrentPeriodStart     Timestamp          `json:"currentPeriodStart"`
	CurrentPeriodEnd       Timestamp          `json:"currentPeriodEnd"`
}

type MissionLimits struct {
	MaxActiveMissions int       `json:"maxActiveMissions"`
	AvailableSlots    int       `json:"availableSlots"`
	LastRefresh       Timestamp `json:"lastRefresh"`
	NextRefresh       Timestamp `json:"nextRefresh"`
	// false for records created before limits existed
	Initialized bool `json:"-"`
}

type DailyMissions struct {
	SelectedMissionIDs []string  `json:"selectedMissionIds"`
	LastRefresh        Timestamp `json:"lastRefresh"`
	NextRefresh        Timestamp `json:"nextRefresh"`
}

type MissionType string

const (
	MissionKills     MissionType = "kills"
	MissionHeadshots MissionType = "headshots"
	MissionGamemode  MissionType = "gamemode"
	MissionWeapon    MissionType = "weapon"
	MissionRounds    MissionType = "rounds"
	MissionWins      MissionType = "wins"
)

type Mission struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Type        MissionType `json:"type"`
	Target      int         `json:"target"`
	Points      int         `json:"points"`
	Difficulty  string      `json:"difficulty"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type UserMission struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	MissionID   string     `json:"missionId"`
	Progress    int        `json:"progress"`
	IsCompleted bool       `json:"isCompleted"`
	StartedAt   time.Time  `json:"startedAt"`
	AcceptedAt  time.Time  `json:"acceptedAt"`
	LastUpdated time.Time  `json:"lastUpdated"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	LastMatchAt *time.Time `json:"lastMatchAt,omitempty"`
}

type UserMissionWithMission struct {
	UserMission
	Mission Mission `json:"mission"`
}

type ValorantMatch struct {
	UserID       string         `json:"userId"`
	MatchID      string         `json:"matchId"`
	Map          string         `json:"map"`
	Mode         string         `json:"mode"`
	Queue        string         `json:"queue"`
	StartedAt    time.Time      `json:"startedAt"`
	Kills        int            `json:"kills"`
	Deaths       int            `json:"deaths"`
	Assists      int            `json:"assists"`
	Headshots    int            `json:"headshots"`
	Score        int            `json:"score"`
	Won          bool           `json:"won"`
	RoundsWon    int            `json:"roundsWon"`
	RoundsPlayed int            `json:"roundsPlayed"`
	Agent        string         `json:"agent"`
	WeaponKills  map[string]int `json:"weaponKills,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type WebhookOutcome string

const (
	WebhookProcessed WebhookOutcome = "processed"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookFailed    WebhookOutcome = "failed"
)

type WebhookLog struct {
	ID             string
	Provider       BillingProvider
	EventType      string
	UserID         string
	SubscriptionID string
	Outcome        WebhookOutcome
	Message        string
	Payload        string
	CreatedAt      time.Time
}

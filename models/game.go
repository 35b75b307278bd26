package models

// Game status values. The lifecycle is linear: IDLE -> VOTING -> FINISHED.
// Only a reset goes back to IDLE, and it does so by replacing the record.
const (
	StatusIdle     = "IDLE"
	StatusVoting   = "VOTING"
	StatusFinished = "FINISHED"
)

// DefaultDurationMs is the voting window for a fresh game (5 minutes).
const DefaultDurationMs int64 = 300000

// Vote is one cast ballot. Immutable once appended; ballots are only
// ever appended or discarded wholesale on reset.
type Vote struct {
	VoterDomain string `json:"voterDomain" bson:"voterDomain"`
	MrName      string `json:"mrName" bson:"mrName"`
	MrsName     string `json:"mrsName" bson:"mrsName"`
	Timestamp   int64  `json:"timestamp" bson:"timestamp"` // ms since epoch, server clock
}

// Game is the single mutable aggregate. One instance exists per
// deployment lifetime; reset creates a fresh one.
type Game struct {
	Status     string `json:"status" bson:"status"`
	StartTime  *int64 `json:"startTime" bson:"startTime"` // nil while IDLE
	DurationMs int64  `json:"durationMs" bson:"durationMs"`
	Votes      []Vote `json:"votes" bson:"votes"`
}

// NewGame returns a fresh idle game with the given voting window.
func NewGame(durationMs int64) *Game {
	return &Game{
		Status:     StatusIdle,
		DurationMs: durationMs,
		Votes:      []Vote{},
	}
}

// HasVoted reports whether the voter already has a ballot. A linear scan
// is fine at office-event scale (tens to low hundreds of voters).
func (g *Game) HasVoted(voterDomain string) bool {
	for _, v := range g.Votes {
		if v.VoterDomain == voterDomain {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the live ballot slice.
func (g *Game) Clone() *Game {
	dup := *g
	if g.StartTime != nil {
		start := *g.StartTime
		dup.StartTime = &start
	}
	dup.Votes = make([]Vote, len(g.Votes))
	copy(dup.Votes, g.Votes)
	return &dup
}

// PublicState is the snapshot pushed to plain observers. It carries no
// ballot content, only the shared clock data a countdown needs.
type PublicState struct {
	Status     string `json:"status"`
	StartTime  *int64 `json:"startTime"`
	DurationMs int64  `json:"durationMs"`
	ServerTime int64  `json:"serverTime"`
	HasVoted   bool   `json:"hasVoted"`
}

// AdminState is the full snapshot for the admin room: everything plain
// observers get plus the ballots and the live count.
type AdminState struct {
	Game      *Game `json:"game"`
	VoteCount int   `json:"voteCount"`
}

// ResultEntry is one ranked candidate in a category tally.
type ResultEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Results holds the top-2 ranking per category plus the overall ballot
// count. Recomputed on every request, never stored.
type Results struct {
	Mr         []ResultEntry `json:"mr"`
	Mrs        []ResultEntry `json:"mrs"`
	TotalVotes int           `json:"totalVotes"`
}

package couple

import "time"

// Couple mirrors the couples table columns the scheduler reads. The couple
// record is authoritative and outlives every scheduled email referencing it.
type Couple struct {
	ID           string
	Email        string
	Name         string
	PartnerName  string
	PartnerEmail string
	CreatedAt    time.Time
}

// Session is one booked therapy session. SessionType maps to a journey
// event id (e.g. individual_1_p1). MaterializedAt is set once the scheduler
// has turned the session into concrete email rows.
type Session struct {
	ID             string
	CoupleID       string
	SessionType    string
	SessionDate    time.Time
	MaterializedAt *time.Time
	CreatedAt      time.Time
}

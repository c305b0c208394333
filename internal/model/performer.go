package model

// PerformerKind distinguishes dance teachers from band musicians. Both
// share the same shape and live in the `teachers` and `musicians` tables.
type PerformerKind string

const (
	KindTeacher  PerformerKind = "TEACHER"
	KindMusician PerformerKind = "MUSICIAN"
)

// Performer is a teacher or musician profile.
type Performer struct {
	ID       uint64        `json:"id"`
	Kind     PerformerKind `json:"kind"`
	Slug     string        `json:"slug"`
	Name     string        `json:"name"`
	Bio      string        `json:"bio,omitempty"`
	City     string        `json:"city,omitempty"`
	Country  string        `json:"country,omitempty"`
	ImageURL string        `json:"imageUrl,omitempty"`
	Website  string        `json:"website,omitempty"`
}

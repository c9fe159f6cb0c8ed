package models

// RoomType categorises classrooms and the rooms courses require.
type RoomType string

const (
	RoomLecture     RoomType = "lecture"
	RoomLab         RoomType = "lab"
	RoomComputerLab RoomType = "computer_lab"
	RoomConference  RoomType = "conference"
)

// Valid reports whether the value is a known room type.
func (r RoomType) Valid() bool {
	switch r {
	case RoomLecture, RoomLab, RoomComputerLab, RoomConference:
		return true
	}
	return false
}

// Compatible reports whether a course requiring the receiver type can run in
// a classroom of the given type. Lectures may use conference rooms and labs
// may use computer labs.
func (r RoomType) Compatible(classroom RoomType) bool {
	if r == classroom {
		return true
	}
	if r == RoomLecture && classroom == RoomConference {
		return true
	}
	if r == RoomLab && classroom == RoomComputerLab {
		return true
	}
	return false
}

// Classroom is a bookable room. Shared classrooms participate in
// cross-department arbitration through the global coordinator.
type Classroom struct {
	ID         string   `json:"id"`
	RoomID     string   `json:"room_id"`
	RoomType   RoomType `json:"room_type"`
	Capacity   int      `json:"capacity"`
	Department string   `json:"department"`
	Shared     bool     `json:"shared"`
}

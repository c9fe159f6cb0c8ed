package models

// CourseType distinguishes lecture courses from labs for rule evaluation.
type CourseType string

const (
	CourseLecture CourseType = "lecture"
	CourseLab     CourseType = "lab"
)

// Course describes one teachable unit. DurationMinutes must be a multiple of
// the 55-minute slot (55, 110, 165 or 220); SessionsPerWeek is 1-5.
type Course struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	CourseType      CourseType `json:"course_type"`
	DurationMinutes int        `json:"duration_minutes"`
	SessionsPerWeek int        `json:"sessions_per_week"`
	RoomType        RoomType   `json:"room_type"`
}

// Section is a cohort of students belonging to one department. Strength is
// the enrolled head count used for classroom capacity checks; zero disables
// the check.
type Section struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Department string `json:"department"`
	Strength   int    `json:"strength"`
}

// Assignment binds a course, section and teacher. Assignments sharing a
// non-empty GroupID are sections co-attending one session and must land on
// identical day/slot/classroom.
type Assignment struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	SectionID string `json:"section_id"`
	TeacherID string `json:"teacher_id"`
	GroupID   string `json:"group_id"`
}

package domain

import "time"

// ISO 8601 weekday constants and mappings
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
	Saturday  = 6
	Sunday    = 7
)

// WeekdayNames maps ISO 8601 weekday numbers to their English names
var WeekdayNames = map[int]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// WeekdayNumbers maps weekday numbers as strings to integers
var WeekdayNumbers = map[string]int{
	"1": Monday,
	"2": Tuesday,
	"3": Wednesday,
	"4": Thursday,
	"5": Friday,
	"6": Saturday,
	"7": Sunday,
}

// ToWeekday converts an ISO 8601 weekday number to time.Weekday (Sunday = 7 -> 0).
func ToWeekday(isoDay int) time.Weekday {
	return time.Weekday(isoDay % 7)
}

// AllTeams is the reserved selector expanding to every registered team
const AllTeams = "all"

// DefaultTeams is used when no team list is configured
var DefaultTeams = []string{"cr", "rum", "apm", "ss"}

// Announcement defaults: every Monday at 09:00 NZT
const (
	DefaultAnnouncementDay      = Monday
	DefaultAnnouncementTime     = "09:00"
	DefaultAnnouncementTimezone = "Pacific/Auckland"
)

// AnnouncementInterval is the period between two recurring announcements
const AnnouncementInterval = 7 * 24 * time.Hour

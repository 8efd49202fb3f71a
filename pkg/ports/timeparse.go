package ports

// TimeRangeParser infers ISO-8601 local date-time ranges
// (YYYY-MM-DDTHH:MM:SS) from free text. ok is false when nothing was found.
type TimeRangeParser interface {
	ParseRange(text string) (start, end string, ok bool)
	ParseDateOnly(text string) (start, end string, ok bool)
}

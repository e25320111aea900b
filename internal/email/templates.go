package email

import (
	"fmt"
	"strings"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

// BookingDetails carries the fields the notification templates render.
type BookingDetails struct {
	UserName     string
	ResourceType string // "room" or "tour"
	ResourceName string
	Date         string
	TimeRange    string
	Purpose      string
	Attendees    int64
	DecisionNote string
}

func FormatDateTimeRange(start, end time.Time) (string, string) {
	date := start.Format("Monday, Jan 2, 2006")
	timeRange := fmt.Sprintf("%s - %s %s", start.Format("3:04 PM"), end.Format("3:04 PM"), start.Format("MST"))
	return date, timeRange
}

func ResourceTypeLabel(resourceType string) string {
	switch strings.TrimSpace(resourceType) {
	case "room":
		return "Room"
	case "tour":
		return "Tour"
	}
	return "Reservation"
}

func BuildSubmittedEmail(details BookingDetails) Message {
	label := ResourceTypeLabel(details.ResourceType)
	lines := append([]string{
		fmt.Sprintf("Your %s reservation request has been received and is awaiting review.", strings.ToLower(label)),
		"",
	}, detailLines(details)...)
	lines = append(lines, "", "You will be notified once an administrator reviews your request.")

	return Message{
		Subject: fmt.Sprintf("%s Reservation Submitted - %s", label, details.ResourceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildApprovedEmail(details BookingDetails) Message {
	label := ResourceTypeLabel(details.ResourceType)
	lines := append([]string{
		fmt.Sprintf("Your %s reservation has been approved.", strings.ToLower(label)),
		"",
	}, detailLines(details)...)
	if note := strings.TrimSpace(details.DecisionNote); note != "" {
		lines = append(lines, fmt.Sprintf("Note: %s", note))
	}

	return Message{
		Subject: fmt.Sprintf("%s Reservation Approved - %s", label, details.ResourceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildRejectedEmail(details BookingDetails) Message {
	label := ResourceTypeLabel(details.ResourceType)
	lines := append([]string{
		fmt.Sprintf("Your %s reservation request was not approved.", strings.ToLower(label)),
		"",
	}, detailLines(details)...)
	if note := strings.TrimSpace(details.DecisionNote); note != "" {
		lines = append(lines, fmt.Sprintf("Reason: %s", note))
	}

	return Message{
		Subject: fmt.Sprintf("%s Reservation Declined - %s", label, details.ResourceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildCancelledEmail(details BookingDetails) Message {
	label := ResourceTypeLabel(details.ResourceType)
	lines := append([]string{
		fmt.Sprintf("Your %s reservation has been cancelled.", strings.ToLower(label)),
		"",
	}, detailLines(details)...)

	return Message{
		Subject: fmt.Sprintf("%s Reservation Cancelled - %s", label, details.ResourceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func BuildReminderEmail(details BookingDetails) Message {
	label := ResourceTypeLabel(details.ResourceType)
	lines := append([]string{
		fmt.Sprintf("Reminder: your %s reservation is coming up.", strings.ToLower(label)),
		"",
	}, detailLines(details)...)

	return Message{
		Subject: fmt.Sprintf("Upcoming %s Reservation Reminder - %s", label, details.ResourceName),
		Body:    strings.Join(lines, "\n"),
	}
}

func detailLines(details BookingDetails) []string {
	resourceName := strings.TrimSpace(details.ResourceName)
	if resourceName == "" {
		resourceName = "TBD"
	}
	date := strings.TrimSpace(details.Date)
	if date == "" {
		date = "TBD"
	}
	timeRange := strings.TrimSpace(details.TimeRange)
	if timeRange == "" {
		timeRange = "TBD"
	}

	lines := []string{
		fmt.Sprintf("%s: %s", ResourceTypeLabel(details.ResourceType), resourceName),
		fmt.Sprintf("Date: %s", date),
		fmt.Sprintf("Time: %s", timeRange),
	}
	if details.Attendees > 0 {
		lines = append(lines, fmt.Sprintf("Attendees: %d", details.Attendees))
	}
	if purpose := strings.TrimSpace(details.Purpose); purpose != "" {
		lines = append(lines, fmt.Sprintf("Purpose: %s", purpose))
	}
	return lines
}

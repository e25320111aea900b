package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// IDFromRequest parses a positive integer {id} path value.
func IDFromRequest(r *http.Request) (int64, error) {
	pathID := strings.TrimSpace(r.PathValue("id"))
	if pathID == "" {
		return 0, fmt.Errorf("invalid ID")
	}
	id, err := strconv.ParseInt(pathID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID")
	}
	return id, nil
}

func ParseIntField(value, name string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, FieldError{Field: name, Reason: "is required"}
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, FieldError{Field: name, Reason: "must be a number"}
	}
	return parsed, nil
}

func ParseBoolField(value string) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// ParseClockValue validates an HH:MM value and normalizes it to two-digit
// hours.
func ParseClockValue(value, name string) (string, error) {
	value = strings.TrimSpace(value)
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return "", FieldError{Field: name, Reason: "must be in HH:MM format"}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", FieldError{Field: name, Reason: "must be in HH:MM format"}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", FieldError{Field: name, Reason: "must be in HH:MM format"}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

package tools

import (
	"fmt"
	"time"
)

const moscowTimeLayout = "2006-01-02 15:04:05 MST"

// MoscowTime returns the current Moscow wall-clock time as a display string.
func MoscowTime() (string, error) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		return "", fmt.Errorf("load timezone: %w", err)
	}
	return time.Now().In(loc).Format(moscowTimeLayout), nil
}

package inventory

import "github.com/google/uuid"

// generateID returns a time-ordered UUID v7, or a random v4 if v7
// generation fails.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

package models

import "github.com/google/uuid"

// TokenPayload is payload of authorization token
type TokenPayload struct {
	UserID uuid.UUID
}

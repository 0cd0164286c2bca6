package models

import "github.com/google/uuid"

// assignID fills a primary key before insert so rows created through either
// dialect carry an application generated UUID.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

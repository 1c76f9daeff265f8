// Package models contains domain types for pulseboard-engine.
package models

import "time"

// Company represents an organization that team members belong to.
type Company struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Values         string    `json:"values"`
	Themes         string    `json:"themes"`
	DecisionMaking string    `json:"decisionMaking"`
	Culture        string    `json:"culture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

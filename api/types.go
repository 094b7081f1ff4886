// Package api defines the wire types shared by the speleosync client engine
// and the reference backend.
package api

import "time"

// Project is the immutable snapshot of a remote project as returned by the
// backend. Identity is ID; everything else is mutated only server-side.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CountryCode  string    `json:"country_code"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	ModifiedDate time.Time `json:"modified_date"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateProjectRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	CountryCode string   `json:"country_code" validate:"required,iso3166_1_alpha2"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// LockResponse is returned by both acquire and release endpoints. ExpiresAt is
// only meaningful for acquire responses.
type LockResponse struct {
	ProjectID string    `json:"project_id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ErrorResponse is the JSON body the backend attaches to non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

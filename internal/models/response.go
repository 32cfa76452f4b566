package models

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

// SweepFailureResponse carries the totals of a sweep that stopped partway.
type SweepFailureResponse struct {
	Error  string      `json:"error"`
	Report interface{} `json:"report"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ListResponse is one page of resource records. Count is the number of
// items on this page, not the total.
type ListResponse struct {
	Items    interface{} `json:"items"`
	Count    int         `json:"count"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type AdminResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

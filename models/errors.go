package models

import "errors"

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrRequestExists   = errors.New("request already exists")
	ErrActorRequired   = errors.New("an authenticated actor identity is required")
	ErrInvalidRequest  = errors.New("invalid request")
)

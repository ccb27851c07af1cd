package models

import (
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestStatus_Pending   RequestStatus = "pending"
	RequestStatus_Claimed   RequestStatus = "claimed"
	RequestStatus_Completed RequestStatus = "completed"
	RequestStatus_Cancelled RequestStatus = "cancelled"
)

var RequestStatuses = []RequestStatus{
	RequestStatus_Pending,
	RequestStatus_Claimed,
	RequestStatus_Completed,
	RequestStatus_Cancelled,
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatus_Pending, RequestStatus_Claimed, RequestStatus_Completed, RequestStatus_Cancelled:
		return true
	}
	return false
}

// HasClaimant reports whether a request in this status must carry a claimant.
func (s RequestStatus) HasClaimant() bool {
	return s == RequestStatus_Claimed || s == RequestStatus_Completed
}

// RequestPayload is the descriptive part of a request. The lifecycle engine carries it around but never looks inside.
type RequestPayload struct {
	Item              string `json:"item" dynamodbav:"item" validate:"required,max=200"`
	Price             string `json:"price,omitempty" dynamodbav:"price,omitempty" validate:"max=100"`
	Terms             string `json:"terms,omitempty" dynamodbav:"terms,omitempty" validate:"max=2000"`
	Urgency           string `json:"urgency,omitempty" dynamodbav:"urgency,omitempty" validate:"omitempty,oneof=low normal high"`
	PreferredMediator string `json:"preferredMediator,omitempty" dynamodbav:"pmd,omitempty" validate:"max=200"`
}

type MediationRequest struct {
	Id          string         `json:"id" dynamodbav:"id"`
	RequesterId string         `json:"requesterId" dynamodbav:"rqr"`
	Status      RequestStatus  `json:"status" dynamodbav:"status"`
	ClaimantId  string         `json:"claimantId,omitempty" dynamodbav:"clm,omitempty"`
	CreatedAt   time.Time      `json:"createdAt" dynamodbav:"cat"`
	UpdatedAt   time.Time      `json:"updatedAt" dynamodbav:"uat"`
	Version     int64          `json:"version" dynamodbav:"version"`
	Payload     RequestPayload `json:"payload" dynamodbav:"payload"`
}

// Valid checks the invariants every persisted request must satisfy.
func (r *MediationRequest) Valid() error {
	if len(r.Id) == 0 {
		return fmt.Errorf("request id is required")
	}
	if len(r.RequesterId) == 0 {
		return fmt.Errorf("request %s: requester id is required", r.Id)
	}
	if !r.Status.Valid() {
		return fmt.Errorf("request %s: unknown status %q", r.Id, r.Status)
	}
	if r.Status.HasClaimant() != (len(r.ClaimantId) > 0) {
		return fmt.Errorf("request %s: claimant %q not allowed in status %s", r.Id, r.ClaimantId, r.Status)
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return fmt.Errorf("request %s: updated before creation", r.Id)
	}
	return nil
}

// ValidForCreate additionally checks that req is a brand new request. Requests are only ever created pending.
func (r *MediationRequest) ValidForCreate() error {
	if err := r.Valid(); err != nil {
		return err
	}
	if r.Status != RequestStatus_Pending {
		return fmt.Errorf("request %s: new requests must be pending, not %s", r.Id, r.Status)
	}
	if r.Version != 0 {
		return fmt.Errorf("request %s: new requests must start at version 0", r.Id)
	}
	return nil
}

// RequestDetail is a request as seen by one viewer, together with the actions that viewer should be offered.
type RequestDetail struct {
	Request          MediationRequest `json:"request"`
	AvailableActions []Action         `json:"availableActions"`
}

package models

import "time"

type TransitionEvent struct {
	RequestId  string        `json:"rid"`
	OldStatus  RequestStatus `json:"old"`
	NewStatus  RequestStatus `json:"new"`
	Action     Action        `json:"act"`
	ActorId    string        `json:"aid"`
	ClaimantId string        `json:"cid,omitempty"`
	Timestamp  time.Time     `json:"ts"`
}

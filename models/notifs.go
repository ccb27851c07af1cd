package models

const AlertTitle = "Mediation Alert"
const EventTitle = "Mediation Request Update"

const (
	AlertDesc_TransitionFailure = "Transition Failure"
	AlertDesc_DispatchFailure   = "Event Dispatch Failure"
)

const (
	AlertFmt_TransitionFailure string = "%s on request %s by %s:\n%v"
	AlertFmt_DispatchFailure   string = "%s event for request %s could not be delivered to any of %d publishers"
	EventFmt_Transition        string = "Request `%s` moved from **%s** to **%s** (%s by %s)"
	EventFmt_Claimant          string = "\nClaimant: %s"
)

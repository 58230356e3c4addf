package model

// RequestStatus classifies the result of submitting a media request.
type RequestStatus string

const (
	// RequestAccepted means the server created the request.
	RequestAccepted RequestStatus = "accepted"

	// RequestDenied means the server refused the request as a matter
	// of policy (quota, permissions). It is a normal business outcome,
	// not a failure.
	RequestDenied RequestStatus = "denied"

	// RequestFailed means the submission did not complete.
	RequestFailed RequestStatus = "failed"
)

// RequestOutcome is the result of one request submission. It is
// consumed once by the caller and never persisted.
type RequestOutcome struct {
	// Status says whether the request was accepted, denied, or failed.
	Status RequestStatus

	// Reason is the server's denial message when Status is denied.
	Reason string

	// Err is the underlying error when Status is failed.
	Err error

	// Tracked reports whether an accepted request was also recorded
	// for availability notification. False on an accepted outcome
	// means the request went through but no notification will come.
	Tracked bool
}

package visitstatus

const (
	Open   = "OPEN"
	Closed = "CLOSED"
)

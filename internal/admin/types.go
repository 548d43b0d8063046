package admin

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	BusID         string `json:"bus_id"`
	BusState      string `json:"bus_state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// BusResponse is returned by GET /bus.
type BusResponse struct {
	ID       string         `json:"id"`
	State    string         `json:"state"`
	Patterns map[string]int `json:"patterns"`
}

// SendResponse is returned by POST /send/{topic}.
type SendResponse struct {
	Topic string `json:"topic"`
	Args  int    `json:"args"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

package model

type Driver struct {
	Number       string `json:"number"`
	Abbreviation string `json:"abbreviation"`
	Team         string `json:"team"`
}

// Channel is a named telemetry signal.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

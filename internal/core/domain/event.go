package domain

// Event is a fact extracted from free text by the event service.
type Event struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Text         string   `json:"text"`
	Participants []string `json:"participants,omitempty"`
	Time         string   `json:"time,omitempty"`
	PlaceRaw     string   `json:"place_raw,omitempty"`
	Artefacts    []string `json:"artefacts,omitempty"`
	Amount       string   `json:"amount,omitempty"`
	Source       string   `json:"source,omitempty"`
	Confidence   float64  `json:"confidence"`
}

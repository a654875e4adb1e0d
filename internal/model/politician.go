package model

// Politician is a canonical politician record. The matching pipeline treats
// these as read-only: they are created and maintained elsewhere.
type Politician struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	NameKana   string  `json:"name_kana,omitempty"`
	PartyID    *int64  `json:"party_id,omitempty"`
	PartyName  string  `json:"party_name,omitempty"`
	District   string  `json:"district,omitempty"`
	Prefecture string  `json:"prefecture,omitempty"`
	ProfileURL string  `json:"profile_url,omitempty"`
}

// Party is a parliamentary party.
type Party struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

package domain

// BoardState is everything needed to render a board after a load.
type BoardState struct {
	Board    Board           `json:"board"`
	Elements []Element       `json:"elements"`
	Blocks   []MaterialBlock `json:"blocks"`
	View     *ViewRecord     `json:"view,omitempty"`
}

package models

// Team represents a professional team that can be drafted.
type Team struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Conference string `json:"conference,omitempty" yaml:"conference"`
	Division   string `json:"division,omitempty" yaml:"division"`
	// Rank orders auto-picks; lower is better and 0 means unranked.
	Rank int `json:"rank,omitempty" yaml:"rank"`
}

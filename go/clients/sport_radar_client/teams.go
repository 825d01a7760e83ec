package sport_radar_client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// SportRadar API response structures
type SRTeam struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Alias  string `json:"alias"`
	Market string `json:"market"`
	SrID   string `json:"sr_id"`
}

type SRDivision struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Alias string   `json:"alias"`
	Teams []SRTeam `json:"teams"`
}

type SRConference struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Alias     string       `json:"alias"`
	Divisions []SRDivision `json:"divisions"`
}

type SRHierarchyResponse struct {
	League struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Alias string `json:"alias"`
	} `json:"league"`
	Conferences []SRConference `json:"conferences"`
}

// GetHierarchy retrieves the conference/division tree with every team.
func (c *SportRadarClient) GetHierarchy(ctx context.Context) (*SRHierarchyResponse, error) {
	var response SRHierarchyResponse
	if err := c.GetJSON(ctx, hierarchyEndpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to get NFL hierarchy: %w", err)
	}
	return &response, nil
}

// Teams returns the league's teams keyed by alias ("KC", "SF"), sorted by id.
// SportRadar carries no ranking, so every team comes back unranked.
func (c *SportRadarClient) Teams(ctx context.Context) ([]models.Team, error) {
	h, err := c.GetHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	var teams []models.Team
	for _, conf := range h.Conferences {
		for _, div := range conf.Divisions {
			for _, t := range div.Teams {
				if t.Alias == "" {
					continue
				}
				name := t.Name
				if t.Market != "" {
					name = t.Market + " " + t.Name
				}
				teams = append(teams, models.Team{
					ID:         t.Alias,
					Name:       name,
					Conference: conf.Alias,
					Division:   strings.TrimPrefix(div.Name, conf.Alias+" "),
				})
			}
		}
	}
	if len(teams) == 0 {
		return nil, errors.New("SportRadar returned no teams")
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mcdev12/draftroom/go/clients/sport_radar_client"
	"github.com/mcdev12/draftroom/go/internal/draft/api"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/teams"
)

func seedTeamsCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-teams",
		Usage: "upsert a team catalog into Postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "catalog", Usage: "YAML catalog file; defaults to the configured catalog"},
			&cli.StringFlag{Name: "source", Value: "catalog", Usage: "catalog or sportradar"},
			&cli.StringFlag{Name: "sportradar-key", EnvVars: []string{"SPORTRADAR_API_KEY"}},
			&cli.StringFlag{Name: "sportradar-url", Value: sport_radar_client.BaseURL},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if path := c.String("catalog"); path != "" {
				cfg.Draft.CatalogFile = path
			}
			catalog, err := catalogSource(cfg.Draft)
			if err != nil {
				return err
			}
			var source teams.Source = catalog
			switch c.String("source") {
			case "catalog":
			case "sportradar":
				if c.String("sportradar-key") == "" {
					return cli.Exit("--sportradar-key is required for the sportradar source", 1)
				}
				remote := sport_radar_client.NewSportRadarClientWithURL(c.String("sportradar-url"), c.String("sportradar-key"))
				source = teams.WithRanks(remote, catalog)
			default:
				return cli.Exit(fmt.Sprintf("unknown team source %q", c.String("source")), 1)
			}

			db, err := setupDatabase(c.Context, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := teams.NewApp(teams.NewRepository(db.Pool)).Seed(c.Context, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer,
				"Teams seed complete: %d total, %d inserted, %d updated, %d unchanged, %d errors\n",
				res.TotalProcessed, res.Created, res.Updated, res.Unchanged, len(res.Errors),
			)
			for _, e := range res.Errors {
				fmt.Fprintf(c.App.ErrWriter, "  %v\n", e)
			}
			if len(res.Errors) > 0 {
				return cli.Exit("seed finished with errors", 1)
			}
			return nil
		},
	}
}

func adminCommand() *cli.Command {
	client := func(c *cli.Context) *api.Client {
		return api.NewClient(&http.Client{Timeout: c.Duration("timeout")}, c.String("server"))
	}
	draftID := func() cli.Flag { return &cli.StringFlag{Name: "draft", Usage: "draft id", Required: true} }
	leagueID := func() cli.Flag { return &cli.StringFlag{Name: "league", Usage: "league id", Required: true} }

	return &cli.Command{
		Name:  "admin",
		Usage: "call the admin API of a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", EnvVars: []string{"DRAFTROOM_SERVER_URL"}},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "create-league",
				Flags: []cli.Flag{&cli.StringFlag{Name: "league"}, &cli.StringFlag{Name: "name", Required: true}, &cli.IntFlag{Name: "size"}},
				Action: func(c *cli.Context) error {
					res, err := client(c).CreateLeague(c.Context, &api.CreateLeagueRequest{
						LeagueID: c.String("league"), Name: c.String("name"), Size: c.Int("size"),
					})
					return printResult(c, res, err)
				},
			},
			{
				Name:  "join",
				Flags: []cli.Flag{leagueID(), &cli.StringFlag{Name: "participant", Required: true}, &cli.StringFlag{Name: "name"}},
				Action: func(c *cli.Context) error {
					res, err := client(c).JoinLeague(c.Context, &api.JoinLeagueRequest{
						LeagueID: c.String("league"), ParticipantID: c.String("participant"), DisplayName: c.String("name"),
					})
					return printResult(c, res, err)
				},
			},
			{
				Name:  "add-robot",
				Flags: []cli.Flag{leagueID(), &cli.StringFlag{Name: "name"}},
				Action: func(c *cli.Context) error {
					res, err := client(c).AddRobot(c.Context, &api.AddRobotRequest{LeagueID: c.String("league"), DisplayName: c.String("name")})
					return printResult(c, res, err)
				},
			},
			{
				Name:  "roster",
				Flags: []cli.Flag{leagueID()},
				Action: func(c *cli.Context) error {
					res, err := client(c).GetRoster(c.Context, &api.GetRosterRequest{LeagueID: c.String("league")})
					return printResult(c, res, err)
				},
			},
			{
				Name: "create-draft",
				Flags: []cli.Flag{
					leagueID(),
					&cli.IntFlag{Name: "rounds", Value: 2},
					&cli.IntFlag{Name: "pick-seconds", Value: 60},
					&cli.StringFlag{Name: "order", Value: string(models.OrderPolicyStatic)},
					&cli.Int64Flag{Name: "shuffle-seed"},
				},
				Action: func(c *cli.Context) error {
					res, err := client(c).CreateDraft(c.Context, &api.CreateDraftRequest{
						LeagueID: c.String("league"),
						Settings: models.DraftSettings{
							TotalRounds:          c.Int("rounds"),
							PickTimeLimitSeconds: c.Int("pick-seconds"),
							OrderPolicy:          models.OrderPolicy(c.String("order")),
							ShuffleSeed:          c.Int64("shuffle-seed"),
						},
					})
					return printResult(c, res, err)
				},
			},
			{
				Name:  "start-draft",
				Flags: []cli.Flag{draftID()},
				Action: func(c *cli.Context) error {
					res, err := client(c).StartDraft(c.Context, &api.StartDraftRequest{DraftID: c.String("draft")})
					return printResult(c, res, err)
				},
			},
			{
				Name:  "reset-draft",
				Flags: []cli.Flag{draftID()},
				Action: func(c *cli.Context) error {
					res, err := client(c).ResetDraft(c.Context, &api.ResetDraftRequest{DraftID: c.String("draft")})
					return printResult(c, res, err)
				},
			},
			{
				Name:  "state",
				Flags: []cli.Flag{draftID(), &cli.StringFlag{Name: "participant"}},
				Action: func(c *cli.Context) error {
					res, err := client(c).GetDraftState(c.Context, &api.GetDraftStateRequest{
						DraftID: c.String("draft"), ParticipantID: c.String("participant"),
					})
					return printResult(c, res, err)
				},
			},
		},
	}
}

func printResult(c *cli.Context, res any, err error) error {
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(out))
	return err
}

package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/bracketry/internal/domain/model"
)

func healthCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the health of the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.get(cmd.Context(), "/healthz")
		},
	}
}

// fileCmd posts the document named by --file to path.
func fileCmd(c *client, use, short, path string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := c.readDocument(file)
			if err != nil {
				return err
			}
			return c.post(cmd.Context(), path, body)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Request file, JSON or YAML; - reads stdin")
	return cmd
}

func generateCmd(c *client) *cobra.Command {
	return fileCmd(c, "generate", "Generate and store the schedule of a request", "/schedules")
}

func seasonCmd(c *client) *cobra.Command {
	return fileCmd(c, "season", "Generate several box schedules together", "/seasons")
}

func standingsCmd(c *client) *cobra.Command {
	return fileCmd(c, "standings", "Compute standings from the stored results", "/standings")
}

func promotionsCmd(c *client) *cobra.Command {
	return fileCmd(c, "promotions", "Plan promotion and relegation between boxes", "/promotions")
}

func matchesCmd(c *client) *cobra.Command {
	return &cobra.Command{
		Use:   "matches EVENT",
		Short: "List the stored matches of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.get(cmd.Context(), "/events/"+url.PathEscape(args[0])+"/matches")
		},
	}
}

func advanceCmd(c *client) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "advance EVENT",
		Short: "Fill bracket slots decided by recorded results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := c.readDocument(file)
			if err != nil {
				return err
			}
			return c.post(cmd.Context(), "/events/"+url.PathEscape(args[0])+"/advance", body)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "The request the bracket was generated from")
	return cmd
}

type resultBody struct {
	MatchID string            `json:"match_id"`
	Status  model.MatchStatus `json:"status"`
	Scores  []model.GameScore `json:"scores,omitempty"`
}

func recordCmd(c *client) *cobra.Command {
	var (
		scores []string
		status string
	)
	cmd := &cobra.Command{
		Use:     "record EVENT MATCH",
		Short:   "Record a match result",
		Example: "  bracketctl record spring-league spring-league-r1-m1 --score 11-7 --score 9-11 --score 11-4",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := resultBody{MatchID: args[1], Status: model.MatchStatus(status)}
			for _, s := range scores {
				g, err := parseScore(s)
				if err != nil {
					return err
				}
				body.Scores = append(body.Scores, g)
			}
			raw, err := json.Marshal(body)
			if err != nil {
				return err
			}
			return c.post(cmd.Context(), "/events/"+url.PathEscape(args[0])+"/results", raw)
		},
	}
	cmd.Flags().StringArrayVarP(&scores, "score", "s", nil, "Game score as A-B, repeated per game")
	cmd.Flags().StringVar(&status, "status", string(model.StatusCompleted), "in_progress, completed or cancelled")
	return cmd
}

// parseScore reads "11-7" as side A 11, side B 7.
func parseScore(s string) (model.GameScore, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return model.GameScore{}, fmt.Errorf("invalid score %q: want A-B", s)
	}
	x, errA := strconv.Atoi(strings.TrimSpace(a))
	y, errB := strconv.Atoi(strings.TrimSpace(b))
	if errA != nil || errB != nil || x < 0 || y < 0 {
		return model.GameScore{}, fmt.Errorf("invalid score %q: want A-B", s)
	}
	return model.GameScore{A: x, B: y}, nil
}

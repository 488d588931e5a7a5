package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"grc-risk/internal/models"
	"grc-risk/internal/scoring"

	"github.com/urfave/cli/v3"
)

func cmdAssess() *cli.Command {
	var likelihood, impact string

	return &cli.Command{
		Name:  "assess",
		Usage: "Print score, level and mitigation hint for a rating pair",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "likelihood",
				Aliases:     []string{"l"},
				Usage:       "Likelihood rating (1-5)",
				Required:    true,
				Destination: &likelihood,
			},
			&cli.StringFlag{
				Name:        "impact",
				Aliases:     []string{"i"},
				Usage:       "Impact rating (1-5)",
				Required:    true,
				Destination: &impact,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			in := models.RiskInput{
				Asset:      "cli",
				Threat:     "cli",
				Likelihood: ratingValue(likelihood),
				Impact:     ratingValue(impact),
			}
			risk, err := in.Validate()
			if err != nil {
				return err
			}

			a := scoring.Assess(risk.Likelihood, risk.Impact)
			w := c.Root().Writer
			fmt.Fprintf(w, "Score: %d\n", a.Score)
			fmt.Fprintf(w, "Level: %s\n", a.Level)
			fmt.Fprintf(w, "Mitigation: %s\n", a.MitigationHint)
			return nil
		},
	}
}

// ratingValue hands non-numeric text to validation as is, so it is reported
// as a non-integer.
func ratingValue(s string) any {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return s
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"greefin/internal/eco"
	"greefin/internal/services"
)

const (
	formatJSON = "json"
	formatText = "text"
)

type surveyFlags struct {
	file   string
	output string
}

func (f *surveyFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "-", "Survey file (.json, .yaml or .yml); - reads JSON from stdin")
	flags.StringVarP(&f.output, "output", "o", formatText, "Output format: text or json")
}

func newProfileCmd() *cobra.Command {
	f := &surveyFlags{}
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print score, persona, XP, badges and category breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(f.output); err != nil {
				return err
			}
			survey, err := loadSurvey(f.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			calc := services.Calculation{
				Profile:   eco.ComputeProfile(survey),
				Breakdown: eco.CategoryBreakdown(survey),
			}
			calc.Description = calc.Profile.Persona.Description()
			calc.Tips = eco.Tips(survey, calc.Profile.Score)

			if f.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), calc)
			}
			return writeProfileText(cmd.OutOrStdout(), calc)
		},
	}
	f.register(cmd)
	return cmd
}

func newTipsCmd() *cobra.Command {
	f := &surveyFlags{}
	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Print personalised tips for a survey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(f.output); err != nil {
				return err
			}
			survey, err := loadSurvey(f.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			tips := eco.Tips(survey, eco.Score(survey))

			if f.output == formatJSON {
				return writeJSON(cmd.OutOrStdout(), map[string][]string{"tips": tips})
			}
			out := cmd.OutOrStdout()
			for i, tip := range tips {
				fmt.Fprintf(out, "%d. %s\n", i+1, tip)
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func checkOutput(output string) error {
	switch output {
	case formatJSON, formatText:
		return nil
	}
	return exitError(2, "unknown output format %q: use text or json", output)
}

// loadSurvey reads path, or stdin for "-", and decodes it by extension.
func loadSurvey(path string, stdin io.Reader) (eco.SurveyResponse, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return eco.SurveyResponse{}, exitError(3, "failed to read survey: %v", err)
	}

	var survey eco.SurveyResponse
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		survey, err = eco.DecodeYAML(data)
	default:
		if len(strings.TrimSpace(string(data))) == 0 {
			return eco.SurveyResponse{}, nil
		}
		survey, err = eco.DecodeJSON(data)
	}
	if err != nil {
		return eco.SurveyResponse{}, exitError(3, "invalid survey %s: %v", path, err)
	}
	return survey, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeProfileText(w io.Writer, calc services.Calculation) error {
	p := calc.Profile
	fmt.Fprintf(w, "Score:   %d/100\n", p.Score)
	fmt.Fprintf(w, "Persona: %s (%s)\n", p.Persona, calc.Description)
	fmt.Fprintf(w, "XP:      %d\n", p.XP)
	if len(p.Badges) == 0 {
		fmt.Fprintln(w, "Badges:  none")
	} else {
		fmt.Fprintf(w, "Badges:  %s\n", strings.Join(eco.BadgeLabels(p.Badges), ", "))
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPOINTS\tWEIGHT\tXP")
	for _, c := range calc.Breakdown {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d\t%d\n", c.Category, c.Points, c.Ceiling, c.Weight, c.XP)
	}
	return tw.Flush()
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

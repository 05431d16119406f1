package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/datawire/verbump/pkg/bump"
	"github.com/datawire/verbump/pkg/cliutil"
	"github.com/datawire/verbump/pkg/config"
	"github.com/datawire/verbump/pkg/pattern"
	"github.com/datawire/verbump/pkg/version"
)

// envVar is a KEY=value pair printed by `show --env`.
type envVar struct {
	Key   string
	Value string
}

func envVars(cur *bump.Current) []envVar {
	info := cur.Info
	num := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	return []envVar{
		{"YEAR_Y", num(info.Year)},
		{"YEAR_G", num(info.ISOYear)},
		{"QUARTER", num(info.Quarter)},
		{"MONTH", num(info.Month)},
		{"DOM", num(info.DayOfMonth)},
		{"DOY", num(info.DayOfYear)},
		{"WEEK_W", strconv.Itoa(info.WeekMonday)},
		{"WEEK_U", strconv.Itoa(info.WeekSunday)},
		{"WEEK_V", num(info.ISOWeek)},
		{"MAJOR", strconv.Itoa(info.Major)},
		{"MINOR", strconv.Itoa(info.Minor)},
		{"PATCH", strconv.Itoa(info.Patch)},
		{"BUILD", info.Build},
		{"TAG", info.Tag},
		{"PYTAG", version.PEP440Tag(info.Tag)},
		{"NUM", strconv.Itoa(info.Num)},
		{"INC0", strconv.Itoa(info.Inc0)},
		{"INC1", strconv.Itoa(info.Inc1)},
		{"CURRENT_VERSION", cur.Version},
		{"PEP440_VERSION", cur.PEP440},
	}
}

type showOutput struct {
	CurrentVersion string              `yaml:"current_version"`
	PEP440Version  string              `yaml:"pep440_version"`
	VersionPattern string              `yaml:"version_pattern"`
	FromTag        bool                `yaml:"from_tag"`
	Parts          yaml.MapSlice       `yaml:"parts"`
	Files          map[string][]string `yaml:"file_patterns"`
}

// partValues returns the value of each part of the pattern, in pattern order.
func partValues(pat *pattern.Pattern, info version.Info) yaml.MapSlice {
	var ret yaml.MapSlice
	seen := make(map[string]bool)
	for _, part := range pat.Parts() {
		if seen[part.Name] {
			continue
		}
		seen[part.Name] = true
		ret = append(ret, yaml.MapItem{Key: part.Name, Value: info.Format(part)})
	}
	return ret
}

func writeShowTable(w io.Writer, out showOutput) error {
	tbl := tablewriter.NewTable(
		w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders:  tw.BorderNone,
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.On, BetweenRows: tw.On}},
		})),
	)
	tbl.Header([]string{"Part", "Value"})
	rows := [][]any{
		{"Current Version", out.CurrentVersion},
		{"PEP440", out.PEP440Version},
		{"Pattern", out.VersionPattern},
	}
	for _, item := range out.Parts {
		rows = append(rows, []any{item.Key, item.Value})
	}
	if err := tbl.Bulk(rows); err != nil {
		return err
	}
	return tbl.Render()
}

func init() {
	var flags struct {
		Env    bool
		Output string
	}
	cmd := &cobra.Command{
		Use:   "show [flags]",
		Short: "Show the current version of the project",
		Long: "Show the current version of the project: the configured current_version, " +
			"or the version of the newest VCS tag if that is newer.",
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch flags.Output {
			case "text", "yaml", "table":
			default:
				return cliutil.FlagErrorFunc(cmd,
					fmt.Errorf("invalid argument %q for \"--output\" flag: must be one of text, yaml, table", flags.Output))
			}

			cfg, err := config.Load(ctx, ".")
			if err != nil {
				return err
			}
			sess, err := bump.NewSession(ctx, cfg)
			if err != nil {
				return err
			}
			fetch := cliutil.GetBoolPair(cmd, "fetch")
			cur, err := sess.Current(ctx, fetch == nil || *fetch)
			if err != nil {
				return err
			}

			if flags.Env {
				for _, kv := range envVars(cur) {
					fmt.Printf("%s=%s\n", kv.Key, kv.Value)
				}
				return nil
			}

			out := showOutput{
				CurrentVersion: cur.Version,
				PEP440Version:  cur.PEP440,
				VersionPattern: cfg.VersionPattern.String(),
				FromTag:        cur.FromTag,
				Parts:          partValues(cfg.VersionPattern, cur.Info),
				Files:          make(map[string][]string),
			}
			for _, file := range cfg.FilePatterns {
				out.Files[file.Path] = file.Templates
			}
			switch flags.Output {
			case "yaml":
				bs, err := yaml.Marshal(out)
				if err != nil {
					return err
				}
				if _, err := os.Stdout.Write(bs); err != nil {
					return err
				}
			case "table":
				return writeShowTable(os.Stdout, out)
			default:
				fmt.Printf("Current Version: %s\n", out.CurrentVersion)
				fmt.Printf("PEP440         : %s\n", out.PEP440Version)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&flags.Env, "env", "e", false,
		"Print the parts of the current version as KEY=value lines")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "text",
		"Output format: text, yaml or table")
	cliutil.AddBoolPair(cmd.Flags(), "fetch", "Fetch tags from the remote before working out the current version (default)")

	argparser.AddCommand(cmd)
}

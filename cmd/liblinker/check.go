package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"liblinker/internal/config"
	"liblinker/internal/deps"
	"liblinker/internal/resolver"
	"liblinker/internal/scan"
	"liblinker/internal/walker"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

var (
	flagRoot   string
	flagConfig string
	flagFormat string
	flagJobs   int
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Print the highlights of every source file in a project",
	Long: "Walks the given files and directories (default: the root), runs the highlight " +
		"pipeline against the root's manifest and prints every highlighted range.",
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&flagRoot, "root", ".", "project root holding the manifest")
	checkCmd.Flags().StringVar(&flagConfig, "config", "", "config file (default: .liblinker.toml or .liblinker.json in the root)")
	checkCmd.Flags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	checkCmd.Flags().IntVar(&flagJobs, "jobs", 0, "files scanned in parallel (default: number of CPUs)")
}

// fileReport is the JSON shape of one checked file.
type fileReport struct {
	Path       string            `json:"path"`
	Highlights []scan.NamedRange `json:"highlights"`
	Error      string            `json:"error,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	if flagFormat != "json" && flagFormat != "text" {
		return fmt.Errorf("invalid format %q: must be json or text", flagFormat)
	}
	commonlog.Configure(flagVerbose-1, nil)

	root, err := filepath.Abs(flagRoot)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root, flagConfig)
	if err != nil {
		return err
	}

	manifest := filepath.Join(root, cfg.Manifest)
	set, err := deps.ReadManifest(manifest, cfg.DependencyFields)
	if err != nil {
		commonlog.GetLogger("liblinker").Warningf("No dependencies from %s: %s", manifest, err.Error())
	}
	var dependencies scan.Dependencies = set
	if cfg.SubpathImports {
		dependencies = scan.WithSubpaths(set)
	}

	r := resolver.New(root, cfg.Include, cfg.Exclude)
	files, err := walker.Collect(r, args)
	if err != nil {
		return err
	}
	reports, err := walker.Check(cmd.Context(), files, flagJobs, dependencies)
	if err != nil {
		return err
	}

	out := make([]fileReport, 0, len(reports))
	for _, report := range reports {
		fr := fileReport{Path: r.Rel(report.Path), Highlights: report.Result.Named()}
		if fr.Highlights == nil {
			fr.Highlights = []scan.NamedRange{}
		}
		if report.Err != nil {
			fr.Error = report.Err.Error()
		}
		out = append(out, fr)
	}

	if flagFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), out)
	}
	writeText(cmd.OutOrStdout(), out)
	return nil
}

// loadConfig reads path, or the config file found in root, over the
// defaults.
func loadConfig(root, path string) (config.Config, error) {
	if path == "" {
		path = config.Find(root)
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func writeJSON(w io.Writer, reports []fileReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// writeText prints one "file:line:col" row per highlight, with one-based
// lines and columns.
func writeText(w io.Writer, reports []fileReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, report := range reports {
		if report.Error != "" {
			fmt.Fprintf(tw, "%s\terror\t%s\n", report.Path, report.Error)
			continue
		}
		for _, h := range report.Highlights {
			fmt.Fprintf(tw, "%s:%d:%d\t%s\n",
				report.Path, h.Range.Start.Line+1, h.Range.Start.Character+1, h.Name)
		}
	}
	tw.Flush()
}

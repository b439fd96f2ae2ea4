package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"casereg/internal/caseid"
	"casereg/internal/config"
	"casereg/internal/export"
	"casereg/internal/registry"
	"casereg/internal/tabular"
	"casereg/internal/ui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	var noColor bool
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "casereg",
		Short: "casereg — case reference registry for arbitration decisions",
		Long:  "A CLI tool that extracts case references from decision titles, normalizes them, groups decisions by shared case number, and exports a styled registry workbook.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ui.Init(noColor)
		},
	}

	rootCmd.Version = buildVersion()
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default casereg.yaml, or CASEREG_CONFIG)")

	// Command groups
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "config", Title: "Configuration:"},
	)

	buildC := buildCmd(&configPath)
	buildC.GroupID = "core"
	parseC := parseCmd()
	parseC.GroupID = "core"
	inspectC := inspectCmd(&configPath)
	inspectC.GroupID = "core"
	summaryC := summaryCmd(&configPath)
	summaryC.GroupID = "core"

	configC := configCmd(&configPath)
	configC.GroupID = "config"

	rootCmd.AddCommand(buildC)
	rootCmd.AddCommand(parseC)
	rootCmd.AddCommand(inspectC)
	rootCmd.AddCommand(summaryC)
	rootCmd.AddCommand(configC)
	rootCmd.AddCommand(completionCmd())

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

func loadConfig(configPath string) (config.Config, string, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, err
	}
	return cfg, path, nil
}

// loadRegistry reads the source file, normalizes every row, and logs the
// rows the parser had trouble with.
func loadRegistry(path string, cfg config.Config, asCSV bool) ([]registry.Record, error) {
	opts := tabular.Options{
		TitleColumn: cfg.Columns.Title,
		DateColumn:  cfg.Columns.Date,
	}

	var rows []registry.Row
	var err error
	if asCSV {
		f, openErr := os.Open(path)
		if openErr != nil {
			return nil, openErr
		}
		defer f.Close()
		rows, err = tabular.ReadCSV(f, opts)
	} else {
		rows, err = tabular.ReadFile(path, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	records := registry.NormalizeAll(rows)
	for _, rec := range records {
		if rec.ClusterKey == "" {
			ui.Logger.Warn("no case reference found", "title", rec.Title)
		} else if rec.LowConfidence() {
			ui.Logger.Warn("incomplete case reference", "title", rec.Title, "canonical", rec.Canonical)
		}
	}
	return records, nil
}

func buildCmd(configPath *string) *cobra.Command {
	var sortMode string
	var asc, desc bool
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "build [input] [output]",
		Short: "Build a styled registry workbook from a source file",
		Long:  "Read decision rows from a spreadsheet, extract and normalize case references, sort and group the registry, partition it, and write a styled workbook with one sheet per partition. With no arguments the file names are prompted for interactively.",
		Example: `  casereg build decisions.xlsx registry.xlsx
  casereg build decisions.csv registry.xlsx --csv --sort date --asc
  casereg build`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				ui.Banner("build", "interactive registry build")
			}

			input, output, err := resolvePaths(args, asCSV)
			if err != nil {
				return err
			}
			if input == "" {
				ui.Info("Cancelled.")
				return nil
			}

			if _, err := os.Stat(output); err == nil {
				proceed, err := ui.Confirm(fmt.Sprintf("Overwrite %s?", output))
				if err != nil {
					return err
				}
				if !proceed {
					ui.Info("Cancelled.")
					return nil
				}
			}

			spec, err := resolveSortSpec(cfg, sortMode, asc, desc)
			if err != nil {
				return err
			}

			sp := ui.NewSpinner(fmt.Sprintf("Reading %s...", input))
			records, err := loadRegistry(input, cfg, asCSV)
			sp.Stop()
			if err != nil {
				return err
			}
			if len(records) == 0 {
				ui.EmptyState("Source has no decision rows.")
				return nil
			}
			if n := unmatchedCount(records); n > 0 {
				ui.Warning(fmt.Sprintf("%d rows carry no recognizable case reference", n))
			}

			sorted := registry.AssignGroups(registry.Sort(records, spec))
			tables := registry.Partition(sorted, cfg.Rules())

			exportOpts := export.Options{
				FillColor:   cfg.Export.FillColor,
				ChartAnchor: cfg.Export.ChartAnchor,
				DateFormat:  cfg.Export.DateFormat,
			}
			ui.Status(fmt.Sprintf("Writing %s...", output))
			if err := export.WriteWorkbook(output, tables, exportOpts); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			ui.Success("Registry built")
			ui.KeyValue("Output:    ", ui.Bold(output))
			ui.KeyValue("Sort:      ", ui.Green(string(spec.Mode)))
			ui.KeyValue("Records:   ", strconv.Itoa(len(sorted)))
			ui.KeyValue("Groups:    ", strconv.Itoa(groupCount(sorted)))
			for _, tab := range tables {
				ui.Detail(tab.Name, fmt.Sprintf("%d records", len(tab.Records)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sortMode, "sort", "", "Sort mode: cluster or date (default from config)")
	cmd.Flags().BoolVar(&asc, "asc", false, "Sort dates oldest first")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort dates newest first")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Treat input as CSV regardless of extension")
	return cmd
}

// resolvePaths returns the input and output paths, prompting interactively
// when they were not given as arguments. An empty input means the user
// cancelled the prompt.
func resolvePaths(args []string, asCSV bool) (string, string, error) {
	input := ""
	output := ""
	if len(args) > 0 {
		input = args[0]
	}
	if len(args) > 1 {
		output = args[1]
	}

	if input == "" {
		got, ok, err := ui.Input("Source spreadsheet file name", func(s string) error {
			return validateInput(s, asCSV)
		})
		if err != nil || !ok {
			return "", "", err
		}
		input = got
	} else if err := validateInput(input, asCSV); err != nil {
		return "", "", err
	}

	if output == "" {
		got, ok, err := ui.Input("Output workbook file name", func(s string) error {
			return validateOutput(s, input)
		})
		if err != nil || !ok {
			return "", "", err
		}
		output = got
	} else if err := validateOutput(output, input); err != nil {
		return "", "", err
	}

	return input, output, nil
}

func validateInput(path string, asCSV bool) error {
	if path == "" {
		return fmt.Errorf("file name must not be empty")
	}
	ext := strings.ToLower(filepath.Ext(path))
	if asCSV || ext == ".csv" {
		if !asCSV && ext != ".csv" {
			return fmt.Errorf("expected a .csv file")
		}
	} else if ext != ".xlsx" {
		return fmt.Errorf("expected an .xlsx file")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	return nil
}

func validateOutput(path, input string) error {
	if path == "" {
		return fmt.Errorf("file name must not be empty")
	}
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return fmt.Errorf("output must be an .xlsx file")
	}
	if filepath.Clean(path) == filepath.Clean(input) {
		return fmt.Errorf("output must differ from input")
	}
	return nil
}

// resolveSortSpec layers the command-line flags over the configured sort.
func resolveSortSpec(cfg config.Config, sortMode string, asc, desc bool) (registry.SortSpec, error) {
	if asc && desc {
		return registry.SortSpec{}, fmt.Errorf("--asc and --desc are mutually exclusive")
	}
	mode := cfg.Sort.Mode
	if sortMode != "" {
		mode = sortMode
	}
	direction := cfg.Sort.Direction
	if asc {
		direction = "asc"
	}
	if desc {
		direction = "desc"
	}
	return registry.ParseSortSpec(mode, direction)
}

func unmatchedCount(records []registry.Record) int {
	n := 0
	for _, rec := range records {
		if rec.ClusterKey == "" {
			n++
		}
	}
	return n
}

func groupCount(records []registry.Record) int {
	max := 0
	for _, rec := range records {
		if rec.Group > max {
			max = rec.Group
		}
	}
	return max
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <title>...",
		Short: "Extract case references from decision titles",
		Example: `  casereg parse "CAS 2020 A 6978 Club X v. Player Y"
  casereg parse "TAS 2011 A 2384 + 2386 award.pdf" "Award of 3 May 2005 (CAS Bull)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, title := range args {
				ids := caseid.Parse(title)
				if len(ids) == 0 {
					rows = append(rows, []string{title, ui.Dim("-"), ui.Dim("-"), ui.Red("no reference found")})
					continue
				}
				canonical := caseid.CanonicalString(ids)
				key := caseid.ClusterKey(canonical)
				flag := ""
				for _, id := range ids {
					if id.LowConfidence {
						flag = ui.Yellow("low confidence")
						break
					}
				}
				rows = append(rows, []string{title, canonical, key, flag})
			}
			ui.Table([]string{"TITLE", "CANONICAL", "CLUSTER KEY", "NOTE"}, rows)
			return nil
		},
	}
}

func inspectCmd(configPath *string) *cobra.Command {
	var partitionName string
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Print the sorted, grouped registry as a table",
		Example: `  casereg inspect decisions.xlsx
  casereg inspect decisions.xlsx --partition "CAS Bull"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			records, err := loadRegistry(args[0], cfg, asCSV)
			if err != nil {
				return err
			}
			spec, err := cfg.SortSpec()
			if err != nil {
				return err
			}
			sorted := registry.AssignGroups(registry.Sort(records, spec))
			tables := registry.Partition(sorted, cfg.Rules())

			for _, tab := range tables {
				if partitionName != "" && !strings.EqualFold(tab.Name, partitionName) {
					continue
				}
				ui.SectionHeader(tab.Name)
				if len(tab.Records) == 0 {
					ui.EmptyState("No records.")
					continue
				}
				var rows [][]string
				for _, rec := range tab.Records {
					dateText := ""
					if rec.HasDate() {
						dateText = rec.Date.Format(cfg.Export.DateFormat)
					}
					rows = append(rows, []string{
						strconv.Itoa(rec.Group),
						rec.Title,
						dateText,
						rec.Canonical,
					})
				}
				ui.Table([]string{"GROUP", "TITLE", "DATE", "CASE NUMBERS"}, rows)
			}
			if partitionName != "" && !hasPartition(tables, partitionName) {
				return fmt.Errorf("no partition named %q (have %s)", partitionName, partitionNames(tables))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&partitionName, "partition", "", "Show only the named partition")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Treat input as CSV regardless of extension")
	return cmd
}

func hasPartition(tables []registry.Table, name string) bool {
	for _, tab := range tables {
		if strings.EqualFold(tab.Name, name) {
			return true
		}
	}
	return false
}

func partitionNames(tables []registry.Table) string {
	names := make([]string, len(tables))
	for i, tab := range tables {
		names[i] = tab.Name
	}
	return strings.Join(names, ", ")
}

func summaryCmd(configPath *string) *cobra.Command {
	var asCSV bool
	cmd := &cobra.Command{
		Use:     "summary <input>",
		Short:   "Render a markdown summary of the registry",
		Example: "  casereg summary decisions.xlsx",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			records, err := loadRegistry(args[0], cfg, asCSV)
			if err != nil {
				return err
			}
			spec, err := cfg.SortSpec()
			if err != nil {
				return err
			}
			sorted := registry.AssignGroups(registry.Sort(records, spec))
			tables := registry.Partition(sorted, cfg.Rules())

			ui.RenderMarkdown(summaryMarkdown(args[0], sorted, tables))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Treat input as CSV regardless of extension")
	return cmd
}

// summaryMarkdown builds the report rendered by the summary command.
func summaryMarkdown(input string, records []registry.Record, tables []registry.Table) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Registry summary: %s\n\n", filepath.Base(input))

	undated := 0
	unmatched := 0
	lowConf := 0
	for _, rec := range records {
		if !rec.HasDate() {
			undated++
		}
		if rec.ClusterKey == "" {
			unmatched++
		} else if rec.LowConfidence() {
			lowConf++
		}
	}

	fmt.Fprintf(&b, "- **Records:** %d\n", len(records))
	fmt.Fprintf(&b, "- **Groups:** %d\n", groupCount(records))
	fmt.Fprintf(&b, "- **Without decision date:** %d\n", undated)
	fmt.Fprintf(&b, "- **Without case reference:** %d\n", unmatched)
	fmt.Fprintf(&b, "- **Low-confidence references:** %d\n\n", lowConf)

	for _, tab := range tables {
		fmt.Fprintf(&b, "## %s (%d records)\n\n", tab.Name, len(tab.Records))
		counts := registry.YearCounts(tab.Records)
		if len(counts) == 0 {
			b.WriteString("_No dated records._\n\n")
			continue
		}
		b.WriteString("| Year | Decisions |\n|------|-----------|\n")
		for _, yc := range counts {
			fmt.Fprintf(&b, "| %d | %d |\n", yc.Year, yc.Count)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func configCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit casereg configuration",
	}
	cmd.AddCommand(configShowCmd(configPath))
	cmd.AddCommand(configSetCmd(configPath))
	cmd.AddCommand(configPathCmd(configPath))
	return cmd
}

func configShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			fmt.Print(cfg.String())
			return nil
		},
	}
}

func configSetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a casereg configuration value. Valid keys: columns.title, columns.date, sort.mode, sort.direction, export.fill_color, export.chart_anchor, export.date_format.",
		Example: `  casereg config set sort.mode date
  casereg config set sort.direction asc
  casereg config set export.fill_color 00FF00`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.SetValue(args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			ui.Success(fmt.Sprintf("Set %s = %s", args[0], args[1]))
			return nil
		},
	}
}

func configPathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configPath
			if path == "" {
				path = config.Path()
			}
			fmt.Println(path)
			return nil
		},
	}
}

func completionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish]",
		Short:     "Generate shell completion scripts",
		Long:      "Generate shell completion scripts for bash, zsh, or fish. Output the script to stdout for sourcing in your shell profile.",
		Example:   "  casereg completion bash > ~/.bashrc.d/casereg\n  casereg completion zsh > ~/.zfunc/_casereg\n  casereg completion fish > ~/.config/fish/completions/casereg.fish",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			default:
				return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", args[0])
			}
		},
	}
}

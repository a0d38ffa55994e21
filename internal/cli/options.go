package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/malbeclabs/retention-tools/internal/posts"
	"github.com/malbeclabs/retention-tools/internal/report"
	"github.com/malbeclabs/retention-tools/pkg/retention"
)

const (
	LoaderCSV    = "csv"
	LoaderDuckDB = "duckdb"

	// DefaultTimezone is the reference zone posts are bucketed in.
	DefaultTimezone = "America/New_York"
	// GroupFillValue is what --group-fillna puts in empty beauty_group cells.
	GroupFillValue = "Competitor"
)

var (
	ErrNoInput          = errors.New("one of --posts or --folder is required")
	ErrConflictingInput = errors.New("--posts and --folder are mutually exclusive")
	ErrGroupByRequired  = errors.New("--out-groupby requires --groupby")
	ErrUnknownLoader    = errors.New("unknown loader")
)

// Options is a report run. Every field can come from a YAML run file and be
// overridden by the matching flag.
type Options struct {
	Posts      string   `yaml:"posts"`
	Folder     string   `yaml:"folder"`
	GroupBy    []string `yaml:"groupby"`
	Timeframe  string   `yaml:"timeframe"`
	BrandList  string   `yaml:"brand_list"`
	BrandGroup string   `yaml:"brand_group"`
	GroupFill  bool     `yaml:"group_fillna"`
	Fill       []string `yaml:"fill"`
	AltLabels  bool     `yaml:"alt_labels"`
	Attributes []string `yaml:"attributes"`
	// PLMExclude lists the roll-up rows left out of the performance report.
	// Defaults to category=all.
	PLMExclude []string `yaml:"plm_exclude"`

	OutAll     string `yaml:"out_all"`
	OutGroupBy string `yaml:"out_groupby"`
	OutPLM     string `yaml:"out_plm"`
	Format     string `yaml:"format"`
	Print      bool   `yaml:"print"`

	Loader            string `yaml:"loader"`
	Timezone          string `yaml:"tz"`
	LegacyMonthLabels bool   `yaml:"legacy_month_labels"`
	Delimiter         string `yaml:"delimiter"`
}

func DefaultOptions() Options {
	return Options{
		Format:    string(report.FormatCSV),
		Loader:    LoaderCSV,
		Timezone:  DefaultTimezone,
		Delimiter: retention.DefaultDelimiter,
	}
}

func (o *Options) bindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Posts, "posts", "p", o.Posts, "single post export CSV file")
	fs.StringVarP(&o.Folder, "folder", "f", o.Folder, "folder of post export CSV files")
	fs.StringSliceVarP(&o.GroupBy, "groupby", "g", o.GroupBy, "comma-separated columns to partition the data by")
	fs.StringVarP(&o.Timeframe, "timeframe", "t", o.Timeframe, "aggregation timeframe: month|quarter|half-year|year")
	fs.StringVar(&o.BrandList, "brand-list", o.BrandList, "CSV file of the subset of brands (group column) to keep")
	fs.StringVar(&o.BrandGroup, "brand-group", o.BrandGroup, "CSV file of the brand taxonomy (brand_id, beauty_group)")
	fs.BoolVar(&o.GroupFill, "group-fillna", o.GroupFill, "fill empty beauty_group values with "+GroupFillValue)
	fs.StringArrayVar(&o.Fill, "fill", o.Fill, "fill empty cells of a column, as column=value (repeatable)")
	fs.BoolVar(&o.AltLabels, "alt-labels", o.AltLabels, "report Retained_rate as Retention_rate and drop Churn_rate")
	fs.BoolVar(&o.AltLabels, "sapmena", o.AltLabels, "alias of --alt-labels")
	fs.StringSliceVar(&o.Attributes, "attributes", o.Attributes, "descriptive columns carried into the performance report (default: those of category, influencer_name, tiers, audience_size present)")
	fs.StringArrayVar(&o.PLMExclude, "plm-exclude", o.PLMExclude, "leave rows matching column=value out of the performance report (repeatable, default "+posts.DefaultRollUp.String()+")")
	fs.StringVar(&o.OutAll, "out-all", o.OutAll, "write the overall retention rates to this file")
	fs.StringVar(&o.OutGroupBy, "out-groupby", o.OutGroupBy, "write the per-group retention rates to this file")
	fs.StringVar(&o.OutPLM, "out-plm", o.OutPLM, "write the influencer performance list to this file")
	fs.StringVar(&o.Format, "format", o.Format, "output file format: csv|json")
	fs.BoolVar(&o.Print, "print", o.Print, "print the reports as tables")
	fs.StringVar(&o.Loader, "loader", o.Loader, "post loader: csv|duckdb")
	fs.StringVar(&o.Timezone, "tz", o.Timezone, "reference time zone of the periods")
	fs.BoolVar(&o.LegacyMonthLabels, "legacy-month-labels", o.LegacyMonthLabels, "label month periods by quarter like the historical reports")
	fs.StringVar(&o.Delimiter, "delimiter", o.Delimiter, "delimiter of composite group keys")
}

// LoadOptions reads a YAML run file on top of the defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read run file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse run file %s: %w", path, err)
	}
	return opts, nil
}

// merge takes every value from file unless its flag was set explicitly.
func (o *Options) merge(file Options, changed func(string) bool) {
	str := func(name string, dst *string, v string) {
		if !changed(name) {
			*dst = v
		}
	}
	flag := func(name string, dst *bool, v bool) {
		if !changed(name) {
			*dst = v
		}
	}
	list := func(name string, dst *[]string, v []string) {
		if !changed(name) {
			*dst = v
		}
	}

	str("posts", &o.Posts, file.Posts)
	str("folder", &o.Folder, file.Folder)
	list("groupby", &o.GroupBy, file.GroupBy)
	str("timeframe", &o.Timeframe, file.Timeframe)
	str("brand-list", &o.BrandList, file.BrandList)
	str("brand-group", &o.BrandGroup, file.BrandGroup)
	flag("group-fillna", &o.GroupFill, file.GroupFill)
	list("fill", &o.Fill, file.Fill)
	if !changed("sapmena") {
		flag("alt-labels", &o.AltLabels, file.AltLabels)
	}
	list("attributes", &o.Attributes, file.Attributes)
	list("plm-exclude", &o.PLMExclude, file.PLMExclude)
	str("out-all", &o.OutAll, file.OutAll)
	str("out-groupby", &o.OutGroupBy, file.OutGroupBy)
	str("out-plm", &o.OutPLM, file.OutPLM)
	str("format", &o.Format, file.Format)
	flag("print", &o.Print, file.Print)
	str("loader", &o.Loader, file.Loader)
	str("tz", &o.Timezone, file.Timezone)
	flag("legacy-month-labels", &o.LegacyMonthLabels, file.LegacyMonthLabels)
	str("delimiter", &o.Delimiter, file.Delimiter)
}

// run is a validated report run.
type run struct {
	Options
	timeframe retention.Timeframe
	location  *time.Location
	format    report.Format
	fills     [][2]string
	rollUps   []posts.Match
}

func (o Options) validate() (*run, error) {
	tf, err := retention.ParseTimeframe(o.Timeframe)
	if err != nil {
		return nil, err
	}
	switch {
	case o.Posts == "" && o.Folder == "":
		return nil, ErrNoInput
	case o.Posts != "" && o.Folder != "":
		return nil, ErrConflictingInput
	}
	if o.OutGroupBy != "" && len(o.GroupBy) == 0 {
		return nil, ErrGroupByRequired
	}
	if o.Loader != LoaderCSV && o.Loader != LoaderDuckDB {
		return nil, fmt.Errorf("%w %q: must be csv or duckdb", ErrUnknownLoader, o.Loader)
	}
	format, err := report.ParseFormat(o.Format)
	if err != nil {
		return nil, err
	}
	tz := o.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", tz, err)
	}

	r := &run{Options: o, timeframe: tf, location: loc, format: format}
	if o.GroupFill {
		r.fills = append(r.fills, [2]string{posts.ColumnBeautyGroup, GroupFillValue})
	}
	for _, f := range o.Fill {
		col, val, err := posts.ParseFill(f)
		if err != nil {
			return nil, err
		}
		r.fills = append(r.fills, [2]string{col, val})
	}
	if len(o.PLMExclude) == 0 {
		r.rollUps = []posts.Match{posts.DefaultRollUp}
	}
	for _, s := range o.PLMExclude {
		m, err := posts.ParseMatch(s)
		if err != nil {
			return nil, err
		}
		r.rollUps = append(r.rollUps, m)
	}
	return r, nil
}

func (r *run) engineConfig(performance bool, attributes []string) retention.Config {
	cfg := retention.Config{
		Timeframe:         r.timeframe,
		Location:          r.location,
		LegacyMonthLabels: r.LegacyMonthLabels,
		GroupBy:           r.GroupBy,
		Delimiter:         r.Delimiter,
	}
	if performance {
		cfg.Performance = &retention.PerformanceConfig{Attributes: attributes}
	}
	return cfg
}

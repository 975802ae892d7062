package models

import "time"

type Config struct {
	Source  Source  `yaml:"source" mapstructure:"source"`
	Store   Store   `yaml:"store" mapstructure:"store"`
	Fetch   Fetch   `yaml:"fetch" mapstructure:"fetch"`
	Report  Report  `yaml:"report" mapstructure:"report"`
	Logging Logging `yaml:"logging" mapstructure:"logging"`
}

// Source locates the production and well tables for an analysis run.
type Source struct {
	ProductionFile      string   `yaml:"production_file" mapstructure:"production_file"`
	WellsFile           string   `yaml:"wells_file" mapstructure:"wells_file"`
	DateLayouts         []string `yaml:"date_layouts" mapstructure:"date_layouts"`
	BlankMeasuresAsZero bool     `yaml:"blank_measures_as_zero" mapstructure:"blank_measures_as_zero"`
}

type Store struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"` // may be ENC[...]
}

type Fetch struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Workers    int           `yaml:"workers" mapstructure:"workers"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	OutputDir  string        `yaml:"output_dir" mapstructure:"output_dir"`
	StartYear  int           `yaml:"start_year,omitempty" mapstructure:"start_year"`
	StartMonth int           `yaml:"start_month,omitempty" mapstructure:"start_month"`
}

type Report struct {
	Top      int    `yaml:"top" mapstructure:"top"`
	MergeKey string `yaml:"merge_key" mapstructure:"merge_key"`
	Format   string `yaml:"format" mapstructure:"format"`
}

type Logging struct {
	Level    string `yaml:"level" mapstructure:"level"`
	Encoding string `yaml:"encoding" mapstructure:"encoding"`
}

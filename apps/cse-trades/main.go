// Copyright 2026 CSE Feed

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/csefeed/csefeed/cse"
	"github.com/csefeed/csefeed/table"
	"github.com/csefeed/csefeed/xlsx"
)

type Flags struct {
	Config   string // optional TOML config file
	OutDir   string // overrides the configured output directory
	Plain    bool   // skip the cosmetic formatting pass
	Preview  int    // print the first N rows of the table
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("cse-trades", flag.ExitOnError)
	fs.StringVar(&flags.Config, "conf", "", "optional TOML config file")
	fs.StringVar(&flags.OutDir, "out", "",
		"output directory; overrides the configured one")
	fs.BoolVar(&flags.Plain, "plain", false,
		"write the spreadsheet without the cosmetic formatting pass")
	fs.IntVar(&flags.Preview, "preview", 0,
		"print the first N rows of the downloaded table")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.Preview < 0 {
		return nil, errors.Reason("-preview must be >= 0")
	}
	return &flags, nil
}

type Config struct {
	URL            string   `toml:"url"`
	OutDir         string   `toml:"out_dir"`
	TimeoutSec     int      `toml:"timeout_seconds"`
	Prettify       bool     `toml:"prettify"`
	PreferredKeys  []string `toml:"preferred_keys"`
	PercentColumns []string `toml:"percent_columns"`
}

func defaultConfig() Config {
	return Config{
		URL:            cse.URL,
		OutDir:         "data",
		TimeoutSec:     30,
		Prettify:       true,
		PreferredKeys:  cse.PreferredKeys,
		PercentColumns: xlsx.PercentSynonyms,
	}
}

// parseConfig reads the TOML config, if any. Fields absent from the file
// keep their compiled-in defaults, so the binary runs with no config at all.
func parseConfig(fileName string) (*Config, error) {
	c := defaultConfig()
	if fileName == "" {
		return &c, nil
	}
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file '%s'", fileName)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file '%s'", fileName)
	}
	return &c, nil
}

// outFileName is the dated output path; a second run the same day overwrites
// the first.
func outFileName(outDir string, now time.Time) string {
	return filepath.Join(outDir,
		fmt.Sprintf("cse_detailed_trades_%s.xlsx", now.Format("2006-01-02")))
}

// export runs one full download-extract-write-format cycle. The preview, if
// requested, goes to w.
func export(ctx context.Context, flags *Flags, w io.Writer) error {
	config, err := parseConfig(flags.Config)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	if flags.OutDir != "" {
		config.OutDir = flags.OutDir
	}
	httpClient := &http.Client{Timeout: time.Duration(config.TimeoutSec) * time.Second}
	ctx = cse.UseClient(ctx, config.URL, httpClient)

	payload, err := cse.DetailedTrades(ctx)
	if err != nil {
		return errors.Annotate(err, "failed to download detailed trades")
	}
	rows := payload.Rows(config.PreferredKeys...)
	if len(rows) == 0 {
		return errors.Reason("no rows found in the API response")
	}
	tbl := table.FromRecords(rows)
	if flags.Preview > 0 {
		if err := tbl.WriteText(w, table.Params{Rows: flags.Preview}); err != nil {
			return errors.Annotate(err, "failed to print the preview")
		}
	}

	fileName := outFileName(config.OutDir, time.Now())
	if err := xlsx.Write(tbl, fileName); err != nil {
		return errors.Annotate(err, "failed to write '%s'", fileName)
	}
	if config.Prettify && !flags.Plain {
		percent := xlsx.PercentColumns(tbl.Header, config.PercentColumns)
		if err := xlsx.Format(fileName, percent); err != nil {
			// The unformatted file is still a valid artifact.
			logging.Warningf(ctx, "formatting pass failed, keeping the plain file: %s",
				err.Error())
		}
	}
	logging.Infof(ctx, "Saved: %s rows: %d", fileName, len(tbl.Rows))
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := export(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}

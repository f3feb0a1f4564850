// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/tliron/commonlog"

	"stylusguard/internal/config"
	"stylusguard/internal/engine"
	apperrors "stylusguard/internal/errors"
	"stylusguard/internal/model"
	"stylusguard/internal/report"
)

func usage() {
	fmt.Println("Usage: stylusguard [options] <file.rs | directory>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -c <config.yaml>   analysis configuration")
	fmt.Println("  -json              emit the report as JSON")
	fmt.Println("  -v                 verbose logging")
	fmt.Println()
	fmt.Println("Exits 1 on critical or high overall risk, 2 on usage or analysis errors.")
}

func main() {
	var (
		configPath string
		asJSON     bool
		verbose    bool
		target     string
	)
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-c":
			i++
			if i >= len(args) {
				usage()
				os.Exit(2)
			}
			configPath = args[i]
		case "-json":
			asJSON = true
		case "-v":
			verbose = true
		case "-h", "--help":
			usage()
			return
		default:
			target = args[i]
		}
	}
	if target == "" {
		usage()
		os.Exit(2)
	}

	verbosity := 0
	if verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	eng, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	startTime := time.Now()
	reports, err := run(eng, target)
	if err != nil {
		os.Exit(2)
	}

	worst := model.RiskMinimal
	for _, rep := range reports {
		if asJSON {
			encoded, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				os.Exit(2)
			}
			fmt.Println(string(encoded))
		} else {
			report.Render(os.Stdout, rep)
			fmt.Println()
		}
		if riskRank(rep.Risk) > riskRank(worst) {
			worst = rep.Risk
		}
	}

	if !asJSON {
		color.Green("Analyzed %d contract(s) in %s", len(reports), formatDuration(time.Since(startTime)))
	}
	if worst == model.RiskCritical || worst == model.RiskHigh {
		os.Exit(1)
	}
}

func run(eng *engine.Engine, target string) ([]*model.Report, error) {
	info, err := os.Stat(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return nil, err
	}

	if info.IsDir() {
		reports, err := eng.AnalyzeProject(context.Background(), target)
		if err != nil {
			printAnalysisError(target, err)
			return nil, err
		}
		return reports, nil
	}

	source, err := os.ReadFile(target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		return nil, err
	}
	rep, err := eng.AnalyzeSource(context.Background(), target, source)
	if err != nil {
		reporter := apperrors.NewReporter(target, string(source))
		var parseErr *apperrors.ParseError
		if errors.As(err, &parseErr) {
			fmt.Print(reporter.FormatFatal(parseErr.Pos, parseErr.Reason))
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		return nil, err
	}
	return []*model.Report{rep}, nil
}

func printAnalysisError(target string, err error) {
	var parseErr *apperrors.ParseError
	if errors.As(err, &parseErr) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", target, err)
		return
	}
	fmt.Fprintf(os.Stderr, "%v\n", err)
}

func riskRank(r model.Risk) int {
	switch r {
	case model.RiskCritical:
		return 4
	case model.RiskHigh:
		return 3
	case model.RiskModerate:
		return 2
	case model.RiskLow:
		return 1
	default:
		return 0
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1000000.0)
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}

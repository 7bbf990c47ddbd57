package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// solveConfig collects the flags of the solve command.
type solveConfig struct {
	uniform bool
	refined bool

	levels   int
	minLevel int
	points   int
	cycles   int

	smoother string
	sweeps   int
	omega    float64
	coarse   string

	outer         string
	tolerance     float64
	maxIterations int

	db         string
	csv        string
	clickHouse bool
	chHost     string
	chPort     int
	chDatabase string
	chUsername string
	chPassword string

	monitor     bool
	monitorPort int
	open        bool

	plot  string
	quiet bool
}

// validate rejects bad flag combinations before any part of the
// hierarchy is assembled.
func (c solveConfig) validate() error {
	switch {
	case c.uniform && c.refined:
		return fmt.Errorf("--uniform and --refined are mutually exclusive")
	case c.levels < 1:
		return fmt.Errorf("at least one level is required, got %d", c.levels)
	case c.minLevel < 0:
		return fmt.Errorf("negative coarsest level %d", c.minLevel)
	case c.points < 1:
		return fmt.Errorf("at least one point per level is required, got %d",
			c.points)
	case c.refined && c.points%2 == 0:
		return fmt.Errorf(
			"refined hierarchies need an odd number of points, got %d",
			c.points)
	case c.cycles < 1:
		return fmt.Errorf(
			"at least one cycle per application is required, got %d",
			c.cycles)
	case c.sweeps < 0:
		return fmt.Errorf("negative sweep count %d", c.sweeps)
	case c.omega <= 0 || c.omega >= 2:
		return fmt.Errorf("relaxation factor %g outside (0, 2)", c.omega)
	case c.tolerance <= 0 || c.tolerance >= 1:
		return fmt.Errorf("tolerance %g outside (0, 1)", c.tolerance)
	case c.maxIterations < 0:
		return fmt.Errorf("negative iteration limit %d", c.maxIterations)
	case !c.monitor && c.monitorPort > 0:
		return fmt.Errorf("--monitor-port requires --monitor")
	case !c.monitor && c.open:
		return fmt.Errorf("--open requires --monitor")
	case c.clickHouse && c.db != "":
		return fmt.Errorf("--db cannot be combined with --clickhouse")
	}

	switch c.smoother {
	case "jacobi", "gs", "sor":
	default:
		return fmt.Errorf("unknown smoother %q, want jacobi, gs, or sor",
			c.smoother)
	}

	switch c.coarse {
	case "dense", "cg":
	default:
		return fmt.Errorf("unknown coarse solver %q, want dense or cg",
			c.coarse)
	}

	switch c.outer {
	case "pcg", "vcycle":
	default:
		return fmt.Errorf("unknown outer iteration %q, want pcg or vcycle",
			c.outer)
	}

	return nil
}

// envDefaults maps solve flags to the environment variables that back
// them when the flag is not given on the command line. A .env file in
// the working directory can provide the variables.
var envDefaults = map[string]string{
	"db":                  "STRATA_DB",
	"csv":                 "STRATA_CSV",
	"clickhouse-host":     "STRATA_CLICKHOUSE_HOST",
	"clickhouse-port":     "STRATA_CLICKHOUSE_PORT",
	"clickhouse-database": "STRATA_CLICKHOUSE_DATABASE",
	"clickhouse-username": "STRATA_CLICKHOUSE_USERNAME",
	"clickhouse-password": "STRATA_CLICKHOUSE_PASSWORD",
	"monitor-port":        "STRATA_MONITOR_PORT",
}

// applyEnvDefaults fills flags the user did not set from their
// environment variables.
func applyEnvDefaults(cmd *cobra.Command) error {
	for flag, env := range envDefaults {
		if cmd.Flags().Changed(flag) {
			continue
		}

		v, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		if err := cmd.Flags().Set(flag, v); err != nil {
			return fmt.Errorf("invalid %s: %w", env, err)
		}
	}

	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/planfoundry/compliance-checker/core"
	"github.com/planfoundry/compliance-checker/ifc"
	"github.com/planfoundry/compliance-checker/internal/logging"
	"github.com/planfoundry/compliance-checker/model"
)

func main() {
	modelPath := flag.String("model", "", "path to the IFC model to check")
	schoolType := flag.String("school-type", "1", "school type ID from the catalog")
	maxStoreys := flag.Int("max-storeys", core.DefaultMaxClassroomStoreys, "maximum storeys classrooms may spread over")
	staff := flag.Int("staff", 0, "staff headcount for the parking rule")
	csvPath := flag.String("csv", "", "optional path for the space inventory CSV")
	schoolTypesPath := flag.String("school-types", "", "path to a school type catalog JSON, built-in defaults when empty")
	flag.Parse()

	_ = godotenv.Load()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *modelPath == "" {
		fmt.Fprintln(os.Stderr, "usage: checker -model <file.ifc> [-school-type ID] [-max-storeys N] [-staff N] [-csv out.csv]")
		os.Exit(2)
	}

	types := core.DefaultSchoolTypes()
	if *schoolTypesPath != "" {
		f, err := os.Open(*schoolTypesPath)
		if err != nil {
			fatal(ctx, log, "open school type catalog", err)
		}
		types, err = core.LoadSchoolTypes(f)
		f.Close()
		if err != nil {
			fatal(ctx, log, "parse school type catalog", err)
		}
	}
	st, ok := core.SchoolTypeByID(types, *schoolType)
	if !ok {
		fatal(ctx, log, "resolve school type", fmt.Errorf("unknown school type %q", *schoolType))
	}

	m, err := ifc.LoadFile(*modelPath)
	if err != nil {
		fatal(ctx, log, "load model", err)
	}
	ev, err := core.Evaluate(m)
	if err != nil {
		fatal(ctx, log, "evaluate model", err)
	}

	log.Info(ctx, "model evaluated",
		logging.String("run_id", ev.RunID),
		logging.String("path", *modelPath),
		logging.Int("spaces_seen", ev.SpacesSeen),
		logging.Int("records", len(ev.Records)),
		logging.Float64("scale", ev.Scale),
	)

	results := core.EvaluateRules(ev, core.RuleParams{
		SchoolType: st,
		MaxStoreys: *maxStoreys,
		StaffCount: *staff,
	})

	allPassed := true
	for _, res := range results {
		allPassed = allPassed && res.Passed
		fmt.Println(formatResult(res))
	}

	if *csvPath != "" {
		if err := writeInventory(*csvPath, ev.Records); err != nil {
			fatal(ctx, log, "write CSV", err)
		}
		fmt.Printf("wrote %d space records to %s\n", len(ev.Records), *csvPath)
	}

	if allPassed {
		fmt.Println("RESULT: compliant")
		return
	}
	fmt.Println("RESULT: NOT compliant")
	os.Exit(1)
}

func formatResult(res model.RuleResult) string {
	verdict := "FAIL"
	if res.Passed {
		verdict = "PASS"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %-18s measured=%g", verdict, res.RuleID, res.Measured)
	if len(res.PermittedCounts) > 0 {
		fmt.Fprintf(&sb, " permitted=%v", res.PermittedCounts)
	} else {
		fmt.Fprintf(&sb, " threshold=%g", res.Threshold)
	}
	for _, key := range []string{"excess_levels", "total_area_m2", "required_slots", "usable_slots", "shortfall_slots", "shortfall_area_m2"} {
		if v, ok := res.Diagnostics[key]; ok {
			fmt.Fprintf(&sb, " %s=%g", key, v)
		}
	}
	return sb.String()
}

func writeInventory(path string, records []model.SpaceRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := core.WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fatal(ctx context.Context, log logging.Logger, what string, err error) {
	log.Error(ctx, what, logging.Err(err))
	fmt.Fprintf(os.Stderr, "checker: %s: %v\n", what, err)
	os.Exit(2)
}

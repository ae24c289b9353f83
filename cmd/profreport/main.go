// Command profreport turns an internal/accnt JSON snapshot (as
// written by `illinix run --accounting-out`) into a pprof profile, one
// sample per recorded pid weighted by the number of scheduling quanta
// it was handed, so pprof's own flame-graph and top tooling can be
// pointed at this kernel simulator's scheduler fairness instead of at
// a real CPU profile.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/pprof/profile"

	"github.com/EscapistArcadia/Illinix391/internal/accnt"
)

func main() {
	out := flag.String("o", "scheduler.pb.gz", "output pprof profile path")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: profreport [-o out.pb.gz] <accounting.json>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *out); err != nil {
		fmt.Fprintf(os.Stderr, "profreport: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	samples, err := accnt.ReadSamples(in)
	if err != nil {
		return fmt.Errorf("parsing accounting snapshot: %w", err)
	}

	prof, err := buildProfile(samples)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return prof.Write(f)
}

// buildProfile gives every sampled pid its own synthetic call stack
// ("terminal N" -> "pid P") so pprof's tree/flame views group
// scheduling quanta by terminal the same way a real CPU profile groups
// samples by call site.
func buildProfile(samples []accnt.Sample) (*profile.Profile, error) {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "quanta", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "quanta", Unit: "count"},
		Period:     1,
	}

	functions := map[string]*profile.Function{}
	locations := map[string]*profile.Location{}
	nextID := uint64(1)

	funcFor := func(name string) *profile.Function {
		if fn, ok := functions[name]; ok {
			return fn
		}
		fn := &profile.Function{ID: nextID, Name: name, SystemName: name}
		nextID++
		functions[name] = fn
		prof.Function = append(prof.Function, fn)
		return fn
	}
	locFor := func(name string) *profile.Location {
		if loc, ok := locations[name]; ok {
			return loc
		}
		loc := &profile.Location{
			ID:   nextID,
			Line: []profile.Line{{Function: funcFor(name)}},
		}
		nextID++
		locations[name] = loc
		prof.Location = append(prof.Location, loc)
		return loc
	}

	for _, s := range samples {
		termLoc := locFor(fmt.Sprintf("terminal %d", s.Term))
		pidLoc := locFor(fmt.Sprintf("pid %d", s.Pid))
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{pidLoc, termLoc},
			Value:    []int64{int64(s.Ticks)},
		})
	}

	if err := prof.CheckValid(); err != nil {
		return nil, fmt.Errorf("building profile: %w", err)
	}
	return prof, nil
}

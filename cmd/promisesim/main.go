// Command promisesim evaluates a scenario once and prints a report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/GoSim-25-26J-441/promise-core/internal/compare"
	"github.com/GoSim-25-26J-441/promise-core/internal/metrics"
	"github.com/GoSim-25-26J-441/promise-core/internal/pipeline"
	"github.com/GoSim-25-26J-441/promise-core/internal/promised"
	"github.com/GoSim-25-26J-441/promise-core/internal/recommend"
	"github.com/GoSim-25-26J-441/promise-core/internal/report"
	"github.com/GoSim-25-26J-441/promise-core/internal/story"
	"github.com/GoSim-25-26J-441/promise-core/pkg/config"
	"github.com/GoSim-25-26J-441/promise-core/pkg/logger"
	"github.com/GoSim-25-26J-441/promise-core/pkg/models"
)

type options struct {
	scenarioPath string
	networkPath  string
	rulesPath    string
	storyPath    string
	objective    string
	apply        bool
	preview      bool
	playStory    bool
	jsonOut      bool
}

func main() {
	var opts options
	var logLevel string

	flag.StringVar(&opts.scenarioPath, "scenario", "", "scenario YAML (default scenario when empty)")
	flag.StringVar(&opts.networkPath, "network", "", "network YAML (built-in network when empty)")
	flag.StringVar(&opts.rulesPath, "rules", "", "recommendation rules YAML (built-in rules when empty)")
	flag.StringVar(&opts.storyPath, "story-file", "", "story YAML for -story (built-in story when empty)")
	flag.StringVar(&opts.objective, "objective", pipeline.DefaultObjective, "objective for -preview and -story")
	flag.BoolVar(&opts.apply, "apply", false, "apply the recommended actions before reporting")
	flag.BoolVar(&opts.preview, "preview", false, "compare the scenario before and after its recommendations")
	flag.BoolVar(&opts.playStory, "story", false, "play the story instantly and report each step")
	flag.BoolVar(&opts.jsonOut, "json", false, "print JSON instead of a text report")
	flag.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.SetDefault(logger.NewText(logLevel, os.Stderr))

	if err := run(os.Stdout, opts); err != nil {
		logger.Error("promisesim failed", "error", err)
		os.Exit(1)
	}
}

func run(out io.Writer, opts options) error {
	network, err := config.LoadNetwork(opts.networkPath)
	if err != nil {
		return err
	}
	rules, err := recommend.LoadRules(opts.rulesPath)
	if err != nil {
		return err
	}
	scenario, err := config.LoadScenario(opts.scenarioPath)
	if err != nil {
		return err
	}
	evaluator := pipeline.NewEvaluator(network, rules)

	switch {
	case opts.playStory:
		script, err := config.LoadStory(opts.storyPath)
		if err != nil {
			return err
		}
		history, err := playStory(evaluator, scenario, script, opts.objective)
		if err != nil {
			return err
		}
		if opts.jsonOut {
			return writeJSON(out, history)
		}
		return report.WriteHistory(out, history)

	case opts.preview:
		p, err := evaluator.Preview(scenario, opts.objective)
		if err != nil {
			return err
		}
		if opts.jsonOut {
			return writeJSON(out, p)
		}
		return report.WritePreview(out, p)
	}

	ev := evaluator.Evaluate(scenario)
	if opts.apply {
		ev = evaluator.Evaluate(recommend.ApplyAll(ev.Scenario, ev.Actions))
	}
	if opts.jsonOut {
		return writeJSON(out, ev)
	}
	return report.WriteEvaluation(out, ev)
}

// playStory runs script at speed 0 against a fresh session and scores the
// evaluation after every step
func playStory(evaluator *pipeline.Evaluator, initial models.ScenarioConfig, script *config.Story, objective string) (*compare.HistoryComparison, error) {
	obj, err := compare.NewObjectiveFunction(objective)
	if err != nil {
		return nil, err
	}
	player, err := story.NewPlayer(script, 0)
	if err != nil {
		return nil, err
	}

	session := promised.NewSession(evaluator, initial, metrics.NewCollector(0))
	entries := []*compare.ScoredKPI{{Label: "initial", KPI: &session.Current().KPI}}
	err = player.Play(context.Background(), session, func(r story.StepResult) {
		if r.Evaluation == nil {
			return
		}
		entries = append(entries, &compare.ScoredKPI{
			Label: fmt.Sprintf("step %d: %s", r.Step.Index+1, r.Step.Message),
			KPI:   &r.Evaluation.KPI,
		})
	})
	if err != nil {
		return nil, err
	}
	return compare.CompareHistory(entries, obj)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

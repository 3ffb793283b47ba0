// Package main provides CMA-ES optimization for finding ecosystem parameters
// under which prey and predators coexist longest.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/ecosim/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval           int     `csv:"eval"`
	Fitness        float64 `csv:"fitness"`
	Quality        float64 `csv:"quality"`
	FoodPerTurn    float64 `csv:"food_per_turn"`
	MutationChance float64 `csv:"mutation_chance"`
	MaxDiversity   float64 `csv:"max_diversity"`
	PreyHunger     float64 `csv:"prey_hunger"`
	PredatorHunger float64 `csv:"predator_hunger"`
}

func evalRecord(eval int, fitness, quality float64, v []float64) EvalRecord {
	return EvalRecord{
		Eval:           eval,
		Fitness:        fitness,
		Quality:        quality,
		FoodPerTurn:    v[0],
		MutationChance: v[1],
		MaxDiversity:   v[2],
		PreyHunger:     v[3],
		PredatorHunger: v[4],
	}
}

// evalLog appends evaluation rows to optimize_log.csv.
type evalLog struct {
	f       *os.File
	written bool
}

func createEvalLog(dir string) (*evalLog, error) {
	f, err := os.Create(filepath.Join(dir, "optimize_log.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating evaluation log: %w", err)
	}
	return &evalLog{f: f}, nil
}

func (l *evalLog) append(rec EvalRecord) error {
	rows := []EvalRecord{rec}
	if l.written {
		return gocsv.MarshalWithoutHeaders(rows, l.f)
	}
	l.written = true
	return gocsv.Marshal(rows, l.f)
}

func (l *evalLog) Close() error { return l.f.Close() }

// progress reports evaluation throughput and the remaining time estimate.
type progress struct {
	start time.Time
	total int
}

func (p progress) report(rec EvalRecord, best float64) {
	elapsed := time.Since(p.start)
	remaining := time.Duration(p.total-rec.Eval) * (elapsed / time.Duration(rec.Eval))
	survived := -rec.Fitness / (1.0 + 0.2*rec.Quality)
	fmt.Printf("eval %d/%d: survived=%.0f steps quality=%.2f best=%.0f elapsed=%s eta=%s\n",
		rec.Eval, p.total, survived, rec.Quality, best,
		elapsed.Round(time.Second), remaining.Round(time.Second))
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxSteps := flag.Int("max-steps", 5000, "Maximum simulation length in steps (cap)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Species splits are logged at info; keep evaluation runs quiet.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]uint64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = uint64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *maxSteps, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	evals, err := createEvalLog(*outputDir)
	if err != nil {
		log.Fatal(err)
	}
	defer evals.Close()

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	prog := progress{start: time.Now(), total: *maxEvals}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++
			if fitness < bestFitness {
				bestFitness, bestParams = fitness, clamped
			}

			rec := evalRecord(evalCount, fitness, evaluator.LastQuality(), clamped)
			if err := evals.append(rec); err != nil {
				log.Printf("logging evaluation %d: %v", evalCount, err)
			}
			prog.report(rec, bestFitness)
			return fitness
		},
	}

	// Each evaluation already runs its seeds in parallel.
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, steps per run: %d\n", *seeds, *maxSteps)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, time.Since(prog.start).Round(time.Second))
	fmt.Printf("Best fitness: %.0f\n", bestFitness)
	if bestParams == nil {
		return
	}

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	bestCfg := *baseCfg
	if err := params.ApplyToConfig(&bestCfg, bestParams); err != nil {
		log.Fatalf("best parameters rejected: %v", err)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}

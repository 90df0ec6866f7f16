package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/overmind/config"
)

// DecisionRecord is one decision cycle's outcome, flattened for CSV export.
type DecisionRecord struct {
	Cycle      int     `csv:"cycle"`
	SimTimeSec float64 `csv:"sim_time"`
	Tier       string  `csv:"tier"`
	Action     string  `csv:"action"`
	Source     string  `csv:"source"` // "rule:<name>", "explore" or "exploit"
	Reward     float64 `csv:"reward"` // Reward credited to the previous action
	AvgReward  float64 `csv:"avg_reward"`
	Epsilon    float64 `csv:"epsilon"`

	BudgetCurrent float64 `csv:"budget_current"`
	BudgetMax     float64 `csv:"budget_max"`
	Emergency     bool    `csv:"emergency"`

	Health     float64 `csv:"health"`
	Stress     float64 `csv:"stress"`
	Engagement float64 `csv:"engagement"`
	EnemyCount int     `csv:"enemy_count"`
	Variety    int     `csv:"variety"`
}

// LogValue implements slog.LogValuer for structured logging.
func (r DecisionRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("cycle", r.Cycle),
		slog.String("action", r.Action),
		slog.String("source", r.Source),
		slog.Float64("reward", r.Reward),
		slog.Float64("avg_reward", r.AvgReward),
		slog.Float64("epsilon", r.Epsilon),
		slog.Float64("budget", r.BudgetCurrent),
		slog.Float64("stress", r.Stress),
		slog.Float64("engagement", r.Engagement),
	)
}

// EpisodeRecord summarizes one completed round for CSV export.
type EpisodeRecord struct {
	Episode      int     `csv:"episode"`
	Tier         string  `csv:"tier"`
	Cycles       int     `csv:"cycles"`
	PlayerDied   bool    `csv:"player_died"`
	AvgReward    float64 `csv:"avg_reward"`
	AvgStress    float64 `csv:"avg_stress"`
	FinalEpsilon float64 `csv:"final_epsilon"`
	TrainSteps   int     `csv:"train_steps"`
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir          string
	decisionFile *os.File
	episodeFile  *os.File

	// Track if headers have been written
	decisionHeaderWritten bool
	episodeHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "decisions.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating decisions.csv: %w", err)
	}
	om.decisionFile = f

	f, err = os.Create(filepath.Join(dir, "episodes.csv"))
	if err != nil {
		om.decisionFile.Close()
		return nil, fmt.Errorf("creating episodes.csv: %w", err)
	}
	om.episodeFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML alongside the logs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteDecision appends a decision record to decisions.csv.
func (om *OutputManager) WriteDecision(rec DecisionRecord) error {
	if om == nil {
		return nil
	}

	records := []DecisionRecord{rec}

	if !om.decisionHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.decisionFile); err != nil {
			return fmt.Errorf("writing decision: %w", err)
		}
		om.decisionHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.decisionFile); err != nil {
			return fmt.Errorf("writing decision: %w", err)
		}
	}

	return nil
}

// WriteEpisode appends an episode record to episodes.csv.
func (om *OutputManager) WriteEpisode(rec EpisodeRecord) error {
	if om == nil {
		return nil
	}

	records := []EpisodeRecord{rec}

	if !om.episodeHeaderWritten {
		if err := gocsv.Marshal(records, om.episodeFile); err != nil {
			return fmt.Errorf("writing episode: %w", err)
		}
		om.episodeHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.episodeFile); err != nil {
			return fmt.Errorf("writing episode: %w", err)
		}
	}

	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.decisionFile != nil {
		if err := om.decisionFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.episodeFile != nil {
		if err := om.episodeFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"solarcast/ml"
)

// CleaningRule inspects one observation and rejects it with an error.
type CleaningRule interface {
	Apply(obs *Observation) error
	Name() string
}

// QualityIssue records why a row was rejected.
type QualityIssue struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
	Row     int    `json:"row"`
}

// CleaningStats summarizes a cleaning pass.
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
}

// DataCleaner applies a rule set to raw dataset rows before training.
type DataCleaner struct {
	rules []CleaningRule

	mu    sync.Mutex
	stats CleaningStats
}

// NewDataCleaner creates a cleaner with the default rule set.
func NewDataCleaner() *DataCleaner {
	cleaner := &DataCleaner{
		stats: CleaningStats{Issues: make(map[string]int64)},
	}
	cleaner.AddRule(finiteValuesRule{})
	cleaner.AddRule(nonNegativePowerRule{})
	cleaner.AddRule(newDuplicateRule())
	return cleaner
}

func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
}

// Clean returns the rows that pass every rule plus the issues found.
func (dc *DataCleaner) Clean(rows []Observation) ([]Observation, []QualityIssue) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	cleaned := make([]Observation, 0, len(rows))
	var issues []QualityIssue

	for i := range rows {
		dc.stats.TotalProcessed++
		rejected := false
		for _, rule := range dc.rules {
			if err := rule.Apply(&rows[i]); err != nil {
				issues = append(issues, QualityIssue{
					Rule:    rule.Name(),
					Message: err.Error(),
					Row:     i,
				})
				dc.stats.Issues[rule.Name()]++
				rejected = true
				break
			}
		}
		if rejected {
			dc.stats.Rejected++
			continue
		}
		dc.stats.Passed++
		cleaned = append(cleaned, rows[i])
	}

	return cleaned, issues
}

// Stats returns a copy of the accumulated cleaning statistics.
func (dc *DataCleaner) Stats() CleaningStats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Issues = make(map[string]int64, len(dc.stats.Issues))
	for k, v := range dc.stats.Issues {
		stats.Issues[k] = v
	}
	return stats
}

type finiteValuesRule struct{}

func (finiteValuesRule) Name() string { return "finite_values" }

func (finiteValuesRule) Apply(obs *Observation) error {
	for _, name := range ml.FeatureNames() {
		value, ok := obs.Features[name]
		if !ok {
			return fmt.Errorf("feature %q absent", name)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("feature %q is not finite", name)
		}
	}
	if math.IsNaN(obs.Power) || math.IsInf(obs.Power, 0) {
		return errors.New("power is not finite")
	}
	return nil
}

type nonNegativePowerRule struct{}

func (nonNegativePowerRule) Name() string { return "non_negative_power" }

func (nonNegativePowerRule) Apply(obs *Observation) error {
	if obs.Power < 0 {
		return fmt.Errorf("negative power %v", obs.Power)
	}
	return nil
}

type duplicateRule struct {
	seen map[string]bool
}

func newDuplicateRule() *duplicateRule {
	return &duplicateRule{seen: make(map[string]bool)}
}

func (*duplicateRule) Name() string { return "duplicate_row" }

func (r *duplicateRule) Apply(obs *Observation) error {
	key := rowKey(obs)
	if r.seen[key] {
		return errors.New("duplicate observation")
	}
	r.seen[key] = true
	return nil
}

func rowKey(obs *Observation) string {
	var b strings.Builder
	for _, name := range ml.FeatureNames() {
		b.WriteString(strconv.FormatFloat(obs.Features[name], 'b', -1, 64))
		b.WriteByte('|')
	}
	b.WriteString(strconv.FormatFloat(obs.Power, 'b', -1, 64))
	return b.String()
}

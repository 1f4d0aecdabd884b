package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"solarcast/ml"
)

// TargetColumn is the recorded power output column in training datasets.
const TargetColumn = "power-generated"

// Observation is one historical weather reading with its recorded output.
type Observation struct {
	Features map[string]float64 `json:"features"`
	Power    float64            `json:"power"`
}

// LoadCSV reads a training dataset whose header names the nine feature
// columns plus the power-generated target. Column order does not matter;
// blank lines are skipped.
func LoadCSV(path string) ([]Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	required := append(ml.FeatureNames(), TargetColumn)
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("dataset missing column %q", name)
		}
	}

	var observations []Observation
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		features := make(map[string]float64, ml.FeatureCount)
		for _, name := range ml.FeatureNames() {
			value, err := parseCell(record, columns[name])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, name, err)
			}
			features[name] = value
		}
		power, err := parseCell(record, columns[TargetColumn])
		if err != nil {
			return nil, fmt.Errorf("line %d, column %q: %w", line, TargetColumn, err)
		}

		observations = append(observations, Observation{Features: features, Power: power})
	}

	if len(observations) == 0 {
		return nil, errors.New("dataset holds no rows")
	}
	return observations, nil
}

// parseCell treats an empty cell as NaN so the cleaner can reject the row
// instead of the whole load failing.
func parseCell(record []string, idx int) (float64, error) {
	if idx >= len(record) {
		return 0, errors.New("short record")
	}
	cell := strings.TrimSpace(record[idx])
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        inputs TEXT NOT NULL,
        value REAL NOT NULL,
        level VARCHAR(20) NOT NULL,
        color VARCHAR(10) NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50),
        tree_depth INTEGER,
        mae REAL,
        rmse REAL,
        data_points INTEGER,
        trained_at DATETIME
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close closes the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// PredictionRecord is one stored prediction with the inputs that produced it.
type PredictionRecord struct {
	Inputs    map[string]float64 `json:"inputs"`
	Value     float64            `json:"value"`
	Level     string             `json:"level"`
	Color     string             `json:"color"`
	CreatedAt time.Time          `json:"created_at"`
}

// SavePrediction appends one prediction to the history table.
func SavePrediction(record PredictionRecord) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	inputs, err := json.Marshal(record.Inputs)
	if err != nil {
		return err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err = database.Exec(`
        INSERT INTO predictions (inputs, value, level, color, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		string(inputs), record.Value, record.Level, record.Color, record.CreatedAt)
	return err
}

// QueryPredictions returns the most recent predictions, newest first.
func QueryPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT inputs, value, level, color, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// limit is caller-controlled; never preallocate unbounded capacity
	records := make([]PredictionRecord, 0, min(limit, 100))
	for rows.Next() {
		var record PredictionRecord
		var inputs string
		if err := rows.Scan(&inputs, &record.Value, &record.Level, &record.Color, &record.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(inputs), &record.Inputs); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// TrainingLog records one completed training run.
type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	TreeDepth  int       `json:"tree_depth"`
	MAE        float64   `json:"mae"`
	RMSE       float64   `json:"rmse"`
	DataPoints int       `json:"data_points"`
	TrainedAt  time.Time `json:"trained_at"`
}

func SaveTrainingLog(entry TrainingLog) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if entry.TrainedAt.IsZero() {
		entry.TrainedAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO training_log (model_name, tree_depth, mae, rmse, data_points, trained_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ModelName, entry.TreeDepth, entry.MAE, entry.RMSE, entry.DataPoints, entry.TrainedAt)
	return err
}

func LoadTrainingLog() ([]TrainingLog, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT model_name, tree_depth, mae, rmse, data_points, trained_at
        FROM training_log
        ORDER BY trained_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var entry TrainingLog
		if err := rows.Scan(&entry.ModelName, &entry.TreeDepth, &entry.MAE, &entry.RMSE, &entry.DataPoints, &entry.TrainedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

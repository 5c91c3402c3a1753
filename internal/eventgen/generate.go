package eventgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// Options controls how a synthetic batch is generated.
type Options struct {
	Count     int
	MachineID string
	// EventTime is the time of the last event; earlier events are spaced
	// evenly across Spread before it. A zero Spread gives every event the
	// same time.
	EventTime  time.Time
	Spread     time.Duration
	DurationMs int64
	// DefectEvery marks every n-th event with one defect; zero disables.
	DefectEvery int
	UUIDs       bool
}

// Generate builds a batch of events. IDs are E-1..E-n unless UUIDs is set.
func Generate(opts Options) ([]models.EventRecord, error) {
	if opts.Count <= 0 {
		return nil, errors.New("count must be positive")
	}
	if opts.MachineID == "" {
		return nil, errors.New("machine id is required")
	}

	var step time.Duration
	if opts.Count > 1 && opts.Spread > 0 {
		step = opts.Spread / time.Duration(opts.Count-1)
	}

	out := make([]models.EventRecord, 0, opts.Count)
	for i := 1; i <= opts.Count; i++ {
		id := fmt.Sprintf("E-%d", i)
		if opts.UUIDs {
			id = uuid.NewString()
		}

		defects := 0
		if opts.DefectEvery > 0 && i%opts.DefectEvery == 0 {
			defects = 1
		}

		out = append(out, models.EventRecord{
			EventID:     id,
			EventTime:   opts.EventTime.Add(-step * time.Duration(opts.Count-i)).UTC(),
			MachineID:   opts.MachineID,
			DurationMs:  opts.DurationMs,
			DefectCount: defects,
		})
	}
	return out, nil
}

// Write encodes records as an indented JSON array.
func Write(w io.Writer, records []models.EventRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Post sends records to a running service's /events/batch endpoint.
func Post(ctx context.Context, client *http.Client, baseURL string, records []models.EventRecord) (models.BatchResponse, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return models.BatchResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/events/batch", bytes.NewReader(body))
	if err != nil {
		return models.BatchResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return models.BatchResponse{}, fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.BatchResponse{}, fmt.Errorf("post batch: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out models.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.BatchResponse{}, fmt.Errorf("decode batch response: %w", err)
	}
	return out, nil
}

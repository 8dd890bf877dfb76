// Package loader imports readings from CSV files and seeds demo accounts.
// It works below the HTTP layer with privileged, unscoped sensor lookups and
// upserts readings instead of rejecting duplicates.
package loader

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/itsatony/sensorhub/internal/hubservice"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// Required CSV header columns
const (
	ColumnTimestamp   = "timestamp"
	ColumnDeviceID    = "device_id"
	ColumnTemperature = "temperature"
	ColumnHumidity    = "humidity"
)

var requiredColumns = []string{ColumnTimestamp, ColumnDeviceID, ColumnTemperature, ColumnHumidity}

// Options control a CSV import
type Options struct {
	// Owner restricts sensor name resolution to the sensors of this user.
	// Empty resolves names across all owners.
	Owner string
}

// Result counts the outcome of an import
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Imported is the number of rows written
func (r Result) Imported() int {
	return r.Created + r.Updated
}

// Loader runs imports and seeding against the hub's repositories
type Loader struct {
	svc *hubservice.HubService
}

// New creates a Loader
func New(svc *hubservice.HubService) *Loader {
	return &Loader{svc: svc}
}

// LoadFile imports the CSV file at path. A missing file is an error and
// nothing is written.
func (l *Loader) LoadFile(ctx context.Context, path string, opts Options) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	nuts.L.Infof("[Loader] Importing readings from %s", path)
	return l.LoadCSV(ctx, f, opts)
}

// LoadCSV imports readings from r inside a single transaction. Rows that
// lack a field, name an unknown or ambiguous sensor, or carry unparsable
// values are skipped and counted. Any other failure rolls back the whole
// import.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader, opts Options) (Result, error) {
	var res Result

	var ownerID int64
	if opts.Owner != "" {
		owner, err := l.svc.Users.GetByUsername(ctx, opts.Owner)
		if err != nil {
			return res, fmt.Errorf("failed to resolve owner %q: %w", opts.Owner, err)
		}
		ownerID = owner.ID
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return res, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns, err := indexColumns(header)
	if err != nil {
		return res, err
	}

	tx, err := l.svc.Readings.BeginTx(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	resolver := newSensorResolver(l.svc.Sensors, ownerID)
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if stderrors.As(err, &parseErr) {
				nuts.L.Warnf("[Loader] Skipping malformed line %d: %v", line, err)
				res.Skipped++
				continue
			}
			return Result{}, fmt.Errorf("failed to read csv: %w", err)
		}

		reading, reason, err := l.parseRow(ctx, resolver, columns, record)
		if err != nil {
			return Result{}, err
		}
		if reason != "" {
			nuts.L.Warnf("[Loader] Skipping line %d: %s", line, reason)
			res.Skipped++
			continue
		}

		created, err := l.svc.Readings.Upsert(ctx, reading, tx)
		if err != nil {
			return Result{}, fmt.Errorf("failed to store reading on line %d: %w", line, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	nuts.L.Infof("[Loader] Imported %d readings (%d created, %d updated), skipped %d rows",
		res.Imported(), res.Created, res.Updated, res.Skipped)
	l.svc.Emit(hubservice.EventReadingsImported, strconv.Itoa(res.Imported()))
	return res, nil
}

// parseRow turns a record into a reading. A non-empty reason means the row
// is skipped; an error aborts the import.
func (l *Loader) parseRow(ctx context.Context, resolver *sensorResolver, columns map[string]int, record []string) (*models.Reading, string, error) {
	field := func(name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	deviceID := field(ColumnDeviceID)
	rawTimestamp := field(ColumnTimestamp)
	rawTemperature := field(ColumnTemperature)
	rawHumidity := field(ColumnHumidity)
	if deviceID == "" || rawTimestamp == "" || rawTemperature == "" || rawHumidity == "" {
		return nil, "missing required field", nil
	}

	sensorID, reason, err := resolver.resolve(ctx, deviceID)
	if err != nil || reason != "" {
		return nil, reason, err
	}

	ts, err := models.ParseTimestamp(rawTimestamp)
	if err != nil {
		return nil, fmt.Sprintf("could not parse timestamp %q", rawTimestamp), nil
	}
	temperature, err := strconv.ParseFloat(rawTemperature, 64)
	if err != nil {
		return nil, fmt.Sprintf("invalid temperature %q", rawTemperature), nil
	}
	humidity, err := strconv.ParseFloat(rawHumidity, 64)
	if err != nil {
		return nil, fmt.Sprintf("invalid humidity %q", rawHumidity), nil
	}

	return &models.Reading{
		SensorID:    sensorID,
		Temperature: temperature,
		Humidity:    humidity,
		Timestamp:   ts,
	}, "", nil
}

func indexColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header is missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

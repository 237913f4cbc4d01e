package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/city-weather/internal/weather"
)

var csvHeader = []string{"timestamp", "city", "status", "stage", "temperature", "windspeed", "condition", "detail"}

// CSVLog appends outcomes to one CSV file per day.
type CSVLog struct {
	dir    string
	prefix string
	now    func() time.Time

	mu sync.Mutex
}

func NewCSVLog(dir, prefix string) *CSVLog {
	return &CSVLog{dir: dir, prefix: prefix, now: time.Now}
}

// Path returns the file a batch recorded at t is appended to.
func (l *CSVLog) Path(t time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s_%s.csv", l.prefix, t.Format("2006-01-02")))
}

// Record appends one row per outcome. The header is written only when
// the file does not exist yet.
func (l *CSVLog) Record(outcomes []weather.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.Path(l.now())

	_, err := os.Stat(path)
	isNew := errors.Is(err, fs.ErrNotExist)
	if err != nil && !isNew {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, o := range outcomes {
		if err := w.Write(csvRow(o)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Debugf("appended %d rows to %s", len(outcomes), path)
	return f.Close()
}

func csvRow(o weather.Outcome) []string {
	row := []string{
		o.FetchedAt.UTC().Format(time.RFC3339),
		o.City,
		string(o.Status),
		string(o.Stage),
		"",
		"",
		"",
		"",
	}
	if o.OK() {
		row[4] = strconv.FormatFloat(o.Temperature, 'f', -1, 64)
		row[5] = strconv.FormatFloat(o.WindSpeed, 'f', -1, 64)
		row[6] = string(o.Condition)
	} else {
		row[7] = o.Reason
	}
	return row
}

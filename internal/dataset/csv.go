package dataset

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-drilldown/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
	csvColumns = 6
)

// LoadCSV reads a region,category,product,sales,quantity,profit file. The
// header line is skipped, rows that fail to parse are dropped, and a file
// without a single valid row is an error.
func LoadCSV(ctx context.Context, filename string) (*Dataset, error) {
	start := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file")
	}

	var (
		records []models.Record
		skipped int
	)
	batch := make([]string, 0, batchSize)

	flush := func() error {
		parsed, bad, err := parseBatch(ctx, batch)
		if err != nil {
			return err
		}
		records = append(records, parsed...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	slog.Default().Info("csv dataset loaded",
		"filename", filename,
		"records", len(records),
		"skipped", skipped,
		"duration", time.Since(start),
	)

	return New(records, filename), nil
}

// parseBatch parses lines concurrently while keeping their original order.
func parseBatch(ctx context.Context, lines []string) ([]models.Record, int, error) {
	results := make([]models.Record, len(lines))
	valid := make([]bool, len(lines))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for i, line := range lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := parseRecord(strings.Split(line, ","))
			if err != nil {
				return nil
			}
			results[i] = rec
			valid[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	out := make([]models.Record, 0, len(lines))
	for i, ok := range valid {
		if ok {
			out = append(out, results[i])
		}
	}
	return out, len(lines) - len(out), nil
}

func parseRecord(fields []string) (models.Record, error) {
	if len(fields) < csvColumns {
		return models.Record{}, fmt.Errorf("insufficient columns")
	}

	region := strings.TrimSpace(fields[0])
	category := strings.TrimSpace(fields[1])
	product := strings.TrimSpace(fields[2])
	if region == "" || category == "" || product == "" {
		return models.Record{}, fmt.Errorf("empty dimension")
	}

	sales, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return models.Record{}, err
	}

	quantity, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil {
		return models.Record{}, err
	}

	profit, err := strconv.ParseInt(strings.TrimSpace(fields[5]), 10, 64)
	if err != nil {
		return models.Record{}, err
	}

	return models.Record{
		Region:   region,
		Category: category,
		Product:  product,
		Sales:    sales,
		Quantity: quantity,
		Profit:   profit,
	}, nil
}

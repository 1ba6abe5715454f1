package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

// the data file is required per car, the others are optional
var (
	carDataTypes  = []string{"data", "position", "merge-rp"}
	carDataFileRe = regexp.MustCompile(`^(\d+)-data\.json$`)
)

// key of the sample timestamp within per car documents
const carTimeField = "time"

// Cars stores the per car files ({car}-data.json, {car}-position.json,
// {car}-merge-rp.json) found in fsys in the legacy per car collections of ns.
// Cars are processed in ascending car number order, the first failing car
// aborts the run.
//
//nolint:whitespace // editor/linter issue
func (i *Ingester) Cars(
	ctx context.Context, ns string, fsys fs.FS, drop bool,
) (int, error) {
	cars, err := discoverCars(fsys)
	if err != nil {
		return 0, err
	}
	if len(cars) == 0 {
		return 0, fmt.Errorf("cars: no {car}-data.json files found")
	}
	total := 0
	for n, car := range cars {
		i.log.Info("processing car",
			log.String("car", car),
			log.String("progress", fmt.Sprintf("%d/%d", n+1, len(cars))))
		for _, dataType := range carDataTypes {
			docs, err := readCarFile(fsys, car, dataType)
			if errors.Is(err, fs.ErrNotExist) && dataType != "data" {
				i.log.Debug("no file", log.String("car", car), log.String("type", dataType))
				continue
			}
			if err != nil {
				return total, fmt.Errorf("car %s: %w", car, err)
			}
			err = i.insert(ctx, ns, api.CarCollection(car, dataType), docs, drop)
			if err != nil {
				return total, fmt.Errorf("car %s: %w", car, err)
			}
			total += len(docs)
		}
	}
	return total, nil
}

func discoverCars(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("cars: %w", err)
	}
	cars := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := carDataFileRe.FindStringSubmatch(e.Name()); m != nil {
			cars = append(cars, m[1])
		}
	}
	slices.SortFunc(cars, func(a, b string) int {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return x - y
	})
	return cars, nil
}

func readCarFile(fsys fs.FS, car, dataType string) ([]model.Document, error) {
	name := fmt.Sprintf("%s-%s.json", car, dataType)
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	var docs []model.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for idx, d := range docs {
		t, ok := d.Time(carTimeField)
		if !ok {
			return nil, fmt.Errorf("%s: entry %d: invalid %s %v",
				name, idx, carTimeField, d[carTimeField])
		}
		// stored as date to allow range queries
		d[carTimeField] = t
	}
	return docs, nil
}

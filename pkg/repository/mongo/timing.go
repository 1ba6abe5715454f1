//nolint:whitespace // can't make both editor and linter happy
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

var byLapNumber = bson.D{{Key: model.FieldLapNumber, Value: 1}}

func (s *store) FindTimingByLapNumber(
	ctx context.Context,
	ns, driverNumber string,
	laps []int,
) ([]model.TimingRecord, error) {
	return s.findTiming(ctx, ns, bson.M{
		model.FieldDriverNumber: driverNumber,
		model.FieldLapNumber:    bson.M{"$in": laps},
	}, options.Find().SetSort(byLapNumber))
}

// numbers sort before strings, laps with lap time "inf" come last
func (s *store) FindFastestLap(
	ctx context.Context,
	ns, driverNumber string,
) ([]model.TimingRecord, error) {
	return s.findTiming(ctx, ns, bson.M{
		model.FieldDriverNumber: driverNumber,
	}, options.Find().
		SetSort(bson.D{
			{Key: model.FieldLapTime, Value: 1},
			{Key: model.FieldLapNumber, Value: 1},
		}).
		SetLimit(1))
}

// range conditions on dates never match the "inf" sentinel
func (s *store) FindTimingByTimeRange(
	ctx context.Context,
	ns, driverNumber string,
	r model.TimeRange,
) ([]model.TimingRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	inRange := bson.M{"$gte": r.Start, "$lte": r.End}
	query := bson.M{model.FieldDriverNumber: driverNumber}
	if r.StartsIn {
		query[model.FieldLapStartDate] = inRange
	}
	if r.EndsIn {
		query[model.FieldLapEndDate] = inRange
	}
	return s.findTiming(ctx, ns, query, options.Find().SetSort(byLapNumber))
}

func (s *store) findTiming(
	ctx context.Context,
	ns string,
	query bson.M,
	opts *options.FindOptions,
) ([]model.TimingRecord, error) {
	docs, err := s.find(ctx, s.collection(ns, api.CollectionTiming), query, opts)
	if err != nil {
		return nil, err
	}
	ret := make([]model.TimingRecord, 0, len(docs))
	for i := range docs {
		rec, err := model.TimingRecordFromDocument(docs[i])
		if err != nil {
			return nil, fmt.Errorf("namespace %s: %w", ns, err)
		}
		ret = append(ret, *rec)
	}
	return ret, nil
}

// Package ingest loads exported session data into the store. Runs are
// offline, single threaded and not idempotent: two runs against the same
// session duplicate data unless the collections are dropped first.
package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/f1data/telemetry-service/log"
	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

type (
	Option   func(*Ingester)
	Ingester struct {
		store api.Store
		runID string
		log   *log.Logger
		steps []Step
	}
	// Step is one write of a run.
	Step struct {
		Namespace  string
		Collection string
		Documents  int
		Dropped    bool
		Duration   time.Duration
	}
)

func WithLogger(l *log.Logger) Option {
	return func(i *Ingester) {
		i.log = l
	}
}

func WithRunID(id string) Option {
	return func(i *Ingester) {
		i.runID = id
	}
}

func NewIngester(store api.Store, opts ...Option) *Ingester {
	ret := &Ingester{
		store: store,
		runID: uuid.NewString(),
		log:   log.Default().Named("ingest"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.log = ret.log.With(log.String("runId", ret.runID))
	return ret
}

func (i *Ingester) RunID() string {
	return i.runID
}

// Steps returns the writes performed so far.
func (i *Ingester) Steps() []Step {
	return append([]Step(nil), i.steps...)
}

//nolint:whitespace // editor/linter issue
func (i *Ingester) insert(
	ctx context.Context, ns, collection string, docs []model.Document, drop bool,
) error {
	start := time.Now()
	if drop {
		if err := i.store.DropCollection(ctx, ns, collection); err != nil {
			return fmt.Errorf("drop %s/%s: %w", ns, collection, err)
		}
		i.log.Info("collection dropped",
			log.String("namespace", ns),
			log.String("collection", collection))
	}
	if err := i.store.InsertMany(ctx, ns, collection, docs); err != nil {
		return fmt.Errorf("insert %s/%s: %w", ns, collection, err)
	}
	step := Step{
		Namespace:  ns,
		Collection: collection,
		Documents:  len(docs),
		Dropped:    drop,
		Duration:   time.Since(start),
	}
	i.steps = append(i.steps, step)
	i.log.Debug("documents inserted",
		log.String("namespace", ns),
		log.String("collection", collection),
		log.Int("documents", len(docs)),
		log.Duration("duration", step.Duration))
	return nil
}

// Report writes a summary table of the run to w.
func (i *Ingester) Report(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.SetTitle("ingest run %s", i.runID)
	t.AppendHeader(table.Row{"Namespace", "Collection", "Documents", "Dropped", "Duration"})
	total := 0
	for _, s := range i.steps {
		total += s.Documents
		t.AppendRow(table.Row{
			s.Namespace, s.Collection, s.Documents, s.Dropped,
			s.Duration.Round(time.Millisecond),
		})
	}
	t.AppendFooter(table.Row{"", "Total", total, "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

//nolint:whitespace // can't make both editor and linter happy
package postgres

import (
	"context"
	"time"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/f1data/telemetry-service/pkg/model"
	"github.com/f1data/telemetry-service/pkg/repository/api"
)

type (
	eventRow struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	sessionRow struct {
		ID        string     `db:"id"`
		EventID   string     `db:"event_id"`
		Name      string     `db:"name"`
		Date      *time.Time `db:"date"`
		StartTime *time.Time `db:"start_time"`
		EndTime   *time.Time `db:"end_time"`
	}
)

func (s *store) FindEvents(ctx context.Context, filter api.EventFilter) (
	[]model.Event, error,
) {
	sqlMods := make(bob.Mods[*dialect.SelectQuery], 0)
	sqlMods = append(sqlMods,
		sm.Columns("id", "name"),
		sm.From("event"),
		sm.OrderBy("id").Asc(),
	)
	if filter.ID != "" {
		sqlMods = append(sqlMods, sm.Where(psql.Quote("id").EQ(psql.Arg(filter.ID))))
	}
	if filter.Name != "" {
		sqlMods = append(sqlMods, sm.Where(psql.Quote("name").EQ(psql.Arg(filter.Name))))
	}
	q := psql.Select(sqlMods...)
	rows, err := bob.All(ctx, s.db, q, scan.StructMapper[eventRow]())
	if err != nil {
		return nil, translateError(err)
	}
	ret := make([]model.Event, len(rows))
	for i := range rows {
		ret[i] = model.Event{ID: rows[i].ID, Name: rows[i].Name}
	}
	return ret, nil
}

func (s *store) FindSessions(ctx context.Context, filter api.SessionFilter) (
	[]model.Session, error,
) {
	sqlMods := make(bob.Mods[*dialect.SelectQuery], 0)
	sqlMods = append(sqlMods,
		sm.Columns("id", "event_id", "name", "date", "start_time", "end_time"),
		sm.From("session"),
		sm.OrderBy("date").Asc(),
		sm.OrderBy("id").Asc(),
	)
	if filter.ID != "" {
		sqlMods = append(sqlMods, sm.Where(psql.Quote("id").EQ(psql.Arg(filter.ID))))
	}
	if filter.EventID != "" {
		sqlMods = append(sqlMods,
			sm.Where(psql.Quote("event_id").EQ(psql.Arg(filter.EventID))))
	}
	q := psql.Select(sqlMods...)
	rows, err := bob.All(ctx, s.db, q, scan.StructMapper[sessionRow]())
	if err != nil {
		return nil, translateError(err)
	}
	ret := make([]model.Session, len(rows))
	for i := range rows {
		ret[i] = rows[i].toSession()
	}
	return ret, nil
}

func (r *sessionRow) toSession() model.Session {
	ret := model.Session{
		ID:      r.ID,
		EventID: r.EventID,
		Name:    r.Name,
	}
	if r.Date != nil {
		ret.Date = model.NewDate(r.Date.Year(), r.Date.Month(), r.Date.Day())
	}
	if r.StartTime != nil {
		t := r.StartTime.UTC()
		ret.StartTime = &t
	}
	if r.EndTime != nil {
		t := r.EndTime.UTC()
		ret.EndTime = &t
	}
	return ret
}

func (s *store) GetSessionField(ctx context.Context, sessionID, field string) (
	any, error,
) {
	var doc map[string]any
	err := s.querier(ctx).QueryRow(ctx,
		"select doc from session where id=$1", sessionID).Scan(&doc)
	if err != nil {
		return nil, translateError(err)
	}
	return api.LookupField(doc, field)
}

func (s *store) UpsertEvent(ctx context.Context, event model.Event) error {
	_, err := s.querier(ctx).Exec(ctx, `
insert into event (id, name) values ($1, $2)
on conflict (id) do update set name=excluded.name`,
		event.ID, event.Name)
	return translateError(err)
}

func (s *store) UpsertSession(
	ctx context.Context,
	session model.Session,
	extra model.Document,
) error {
	var date *time.Time
	if !session.Date.IsZero() {
		date = &session.Date.Time
	}
	_, err := s.querier(ctx).Exec(ctx, `
insert into session (id, event_id, name, date, start_time, end_time, doc)
values ($1, $2, $3, $4, $5, $6, $7)
on conflict (id) do update set
	event_id=excluded.event_id, name=excluded.name, date=excluded.date,
	start_time=excluded.start_time, end_time=excluded.end_time, doc=excluded.doc`,
		session.ID, session.EventID, session.Name, date,
		session.StartTime, session.EndTime,
		map[string]any(api.SessionDocument(session, extra)))
	return translateError(err)
}

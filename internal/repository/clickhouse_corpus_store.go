package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"NeuroFeat/internal/domain/models"
	pkgch "NeuroFeat/pkg/clickhouse"
	applogger "NeuroFeat/pkg/logger"
)

// CHCorpusStore implements CorpusStore backed by ClickHouse.
// Raw segments are stitched back into per-session multi-channel signals.
type CHCorpusStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCorpusStore(ch *pkgch.Client, table string) *CHCorpusStore {
	return &CHCorpusStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHCorpusStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCorpusStore) ListSessions(ctx context.Context, from, to time.Time, limit int) ([]string, error) {
	start := time.Now()
	const qtpl = `
        SELECT DISTINCT session
        FROM %s
        WHERE ts >= ? AND ts <= ?
        ORDER BY session ASC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse list_sessions query error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, 64)
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse list_sessions ok",
			applogger.String("table", s.table),
			applogger.Int("sessions", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCorpusStore) GetSignals(ctx context.Context, sessionIDs []string, from, to time.Time) ([]models.Signal, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	start := time.Now()
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sessionIDs)), ",")
	const qtpl = `
        SELECT session, channel, ts, samples, label
        FROM %s
        WHERE session IN (%s) AND ts >= ? AND ts <= ?
        ORDER BY session ASC, channel ASC, ts ASC
    `
	q := fmt.Sprintf(qtpl, s.table, placeholders)
	args := make([]interface{}, 0, len(sessionIDs)+2)
	for _, id := range sessionIDs {
		args = append(args, id)
	}
	args = append(args, from, to)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_signals query error",
				applogger.String("table", s.table),
				applogger.Int("sessions", len(sessionIDs)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get signals: %w", err)
	}
	defer rows.Close()

	type key struct {
		session string
		channel int
	}
	samples := make(map[key][]float64)
	labels := make(map[string]string)
	for rows.Next() {
		var (
			session string
			channel int32
			ts      time.Time
			chunk   []float64
			label   string
		)
		if err := rows.Scan(&session, &channel, &ts, &chunk, &label); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_signals scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		k := key{session: session, channel: int(channel)}
		samples[k] = append(samples[k], chunk...)
		if label != "" {
			labels[session] = label
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// assemble signals in the requested session order, channels ascending
	channelsBySession := make(map[string][]int)
	for k := range samples {
		channelsBySession[k.session] = append(channelsBySession[k.session], k.channel)
	}
	out := make([]models.Signal, 0, len(channelsBySession))
	for _, session := range sessionIDs {
		chs, ok := channelsBySession[session]
		if !ok {
			continue
		}
		sort.Ints(chs)
		sig := models.Signal{ID: session, Label: labels[session]}
		for _, ch := range chs {
			sig.Channels = append(sig.Channels, samples[key{session: session, channel: ch}])
		}
		out = append(out, sig)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_signals ok",
			applogger.String("table", s.table),
			applogger.Int("sessions", len(sessionIDs)),
			applogger.Int("signals", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

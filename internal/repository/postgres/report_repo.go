package postgres

import (
	"context"
	"time"

	"github.com/counselink/server/internal/model"
)

// ReportRepo implements ReportRepository using PostgreSQL.
type ReportRepo struct{ db *DB }

// NewReportRepo constructs a report repository.
func NewReportRepo(db *DB) *ReportRepo { return &ReportRepo{db: db} }

// FeedbackOverview returns per-counselor rating aggregates. Counselors
// without feedback are included with zero ratings and sort last.
func (r *ReportRepo) FeedbackOverview(ctx context.Context) ([]model.CounselorRating, error) {
	const q = `
SELECT u.id, trim(u.first_name || ' ' || u.last_name),
       COALESCE(AVG(f.rating), 0), COUNT(f.id)
FROM users u
LEFT JOIN feedback f ON f.counselor_id = u.id
WHERE u.role = 'counselor'
GROUP BY u.id, u.first_name, u.last_name
ORDER BY COUNT(f.id) = 0, AVG(f.rating) DESC NULLS LAST`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CounselorRating
	for rows.Next() {
		var cr model.CounselorRating
		if err := rows.Scan(&cr.CounselorID, &cr.CounselorName, &cr.AverageRating, &cr.TotalRatings); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}

// DailyLoad counts appointments per counselor within [midnight, midnight+24h)
// of the given day. Counselors with no appointments are included.
func (r *ReportRepo) DailyLoad(ctx context.Context, day time.Time) ([]model.DailyLoad, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	const q = `
SELECT u.id, trim(u.first_name || ' ' || u.last_name), COUNT(a.id)
FROM users u
LEFT JOIN appointments a
  ON a.counselor_id = u.id AND a.date_time >= $1 AND a.date_time < $2
WHERE u.role = 'counselor'
GROUP BY u.id, u.first_name, u.last_name
ORDER BY COUNT(a.id) DESC`
	rows, err := r.db.Pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DailyLoad
	for rows.Next() {
		var dl model.DailyLoad
		if err := rows.Scan(&dl.CounselorID, &dl.CounselorName, &dl.Appointments); err != nil {
			return nil, err
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

// Stats returns the admin dashboard counters.
func (r *ReportRepo) Stats(ctx context.Context) (*model.AdminStats, error) {
	st := &model.AdminStats{ByStatus: map[model.AppointmentStatus]int{}}

	const counts = `
SELECT
  (SELECT COUNT(*) FROM users WHERE role='student'),
  (SELECT COUNT(*) FROM users WHERE role='counselor'),
  (SELECT COUNT(*) FROM appointments)`
	if err := r.db.Pool.QueryRow(ctx, counts).Scan(&st.Students, &st.Counselors, &st.Appointments); err != nil {
		return nil, err
	}

	const byStatus = `SELECT status, COUNT(*) FROM appointments GROUP BY status`
	rows, err := r.db.Pool.Query(ctx, byStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.AppointmentStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		st.ByStatus[s] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	st.PendingAppointments = st.ByStatus[model.StatusPending]
	return st, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gtechitgaminghub-byte/gamezone/internal/models"
	"github.com/gtechitgaminghub-byte/gamezone/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role, balance_minutes, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role, balance_minutes, created_at
		FROM users
		WHERE username = $1
	`, username)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, password, role, balance_minutes, created_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.BalanceMinutes, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, input store.CreateUserInput) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, role, balance_minutes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, password, role, balance_minutes, created_at
	`, input.Username, input.Password, input.Role, input.BalanceMinutes)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrUsernameTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, input store.UpdateUserInput) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET username = COALESCE($2, username),
			password = COALESCE($3, password),
			role = COALESCE($4, role),
			balance_minutes = COALESCE($5, balance_minutes)
		WHERE id = $1
		RETURNING id, username, password, role, balance_minutes, created_at
	`, id, input.Username, input.Password, input.Role, input.BalanceMinutes)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrUsernameTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *Store) GetPc(ctx context.Context, id int64) (models.Pc, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, ip_address, mac_address, status, last_ping
		FROM pcs
		WHERE id = $1
	`, id)
	return scanPc(row)
}

func (s *Store) ListPcs(ctx context.Context) ([]models.Pc, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, ip_address, mac_address, status, last_ping
		FROM pcs
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pcs []models.Pc
	for rows.Next() {
		pc, err := scanPc(rows)
		if err != nil {
			return nil, err
		}
		pcs = append(pcs, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pcs, nil
}

func (s *Store) CreatePc(ctx context.Context, input store.CreatePcInput) (models.Pc, error) {
	status := input.Status
	if status == "" {
		status = models.PcStatusOffline
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO pcs (name, ip_address, mac_address, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, ip_address, mac_address, status, last_ping
	`, input.Name, nullIfEmpty(input.IPAddress), nullIfEmpty(input.MACAddress), status)
	return scanPc(row)
}

func (s *Store) UpdatePc(ctx context.Context, id int64, input store.UpdatePcInput) (models.Pc, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE pcs
		SET name = COALESCE($2, name),
			ip_address = COALESCE($3, ip_address),
			mac_address = COALESCE($4, mac_address),
			status = COALESCE($5, status)
		WHERE id = $1
		RETURNING id, name, ip_address, mac_address, status, last_ping
	`, id, input.Name, input.IPAddress, input.MACAddress, input.Status)
	return scanPc(row)
}

func (s *Store) DeletePc(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pcs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrPcNotFound
	}
	return nil
}

func (s *Store) RecordPcPing(ctx context.Context, id int64, at time.Time) (models.Pc, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE pcs
		SET last_ping = $2
		WHERE id = $1
		RETURNING id, name, ip_address, mac_address, status, last_ping
	`, id, at)
	return scanPc(row)
}

// StartSession inserts the session row and flips the PC to in_session in
// one transaction. The PC row is locked first so two concurrent starts
// against the same PC cannot both succeed.
func (s *Store) StartSession(ctx context.Context, input store.StartSessionInput) (models.RentalSession, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.RentalSession{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var userExists bool
	row := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, input.UserID)
	if err = row.Scan(&userExists); err != nil {
		return models.RentalSession{}, err
	}
	if !userExists {
		err = store.ErrUserNotFound
		return models.RentalSession{}, err
	}

	var pcStatus string
	row = tx.QueryRow(ctx, `SELECT status FROM pcs WHERE id = $1 FOR UPDATE`, input.PcID)
	if err = row.Scan(&pcStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrPcNotFound
		}
		return models.RentalSession{}, err
	}
	if !store.ValidPcTransition("session_start", pcStatus) {
		err = store.ErrPcBusy
		return models.RentalSession{}, err
	}

	session := models.RentalSession{
		UserID:          input.UserID,
		PcID:            input.PcID,
		AssignedMinutes: input.AssignedMinutes,
		Status:          models.SessionStatusActive,
	}
	row = tx.QueryRow(ctx, `
		INSERT INTO rental_sessions (user_id, pc_id, assigned_minutes, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, start_time
	`, input.UserID, input.PcID, input.AssignedMinutes, models.SessionStatusActive)
	if err = row.Scan(&session.ID, &session.StartTime); err != nil {
		return models.RentalSession{}, err
	}

	if _, err = tx.Exec(ctx, `UPDATE pcs SET status = $1 WHERE id = $2`, models.PcStatusInSession, input.PcID); err != nil {
		return models.RentalSession{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.RentalSession{}, err
	}
	return session, nil
}

// EndSession completes the session and returns its PC to online,
// regardless of the status the PC held before the session started.
func (s *Store) EndSession(ctx context.Context, id int64) (models.RentalSession, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.RentalSession{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var session models.RentalSession
	row := tx.QueryRow(ctx, `
		SELECT id, user_id, pc_id, start_time, end_time, assigned_minutes, status
		FROM rental_sessions
		WHERE id = $1
		FOR UPDATE
	`, id)
	session, err = scanSession(row)
	if err != nil {
		return models.RentalSession{}, err
	}
	if !store.ValidSessionTransition("end", session.Status) {
		err = store.ErrSessionCompleted
		return models.RentalSession{}, err
	}

	endTime := time.Now().UTC()
	if _, err = tx.Exec(ctx, `
		UPDATE rental_sessions
		SET status = $2, end_time = $3
		WHERE id = $1
	`, id, models.SessionStatusCompleted, endTime); err != nil {
		return models.RentalSession{}, err
	}

	if _, err = tx.Exec(ctx, `UPDATE pcs SET status = $1 WHERE id = $2`, models.PcStatusOnline, session.PcID); err != nil {
		return models.RentalSession{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.RentalSession{}, err
	}

	session.Status = models.SessionStatusCompleted
	session.EndTime = &endTime
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context, filter store.SessionFilter) ([]models.RentalSession, error) {
	where, args := sessionFilterClause(filter)
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.user_id, s.pc_id, s.start_time, s.end_time, s.assigned_minutes, s.status
		FROM rental_sessions s
	`+where+`
		ORDER BY s.start_time DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.RentalSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *Store) ListSessionDetails(ctx context.Context, filter store.SessionFilter) ([]models.SessionDetail, error) {
	where, args := sessionFilterClause(filter)
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.user_id, s.pc_id, s.start_time, s.end_time, s.assigned_minutes, s.status,
			u.id, u.username, u.role, u.balance_minutes, u.created_at,
			p.id, p.name, p.ip_address, p.mac_address, p.status, p.last_ping
		FROM rental_sessions s
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN pcs p ON p.id = s.pc_id
	`+where+`
		ORDER BY s.start_time DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []models.SessionDetail
	for rows.Next() {
		var detail models.SessionDetail
		var endTimeNull sql.NullTime
		var userIDNull sql.NullInt64
		var usernameNull, userRoleNull sql.NullString
		var balanceNull sql.NullInt64
		var userCreatedNull sql.NullTime
		var pcIDNull sql.NullInt64
		var pcNameNull, ipNull, macNull, pcStatusNull sql.NullString
		var lastPingNull sql.NullTime
		if err := rows.Scan(
			&detail.ID, &detail.UserID, &detail.PcID, &detail.StartTime, &endTimeNull, &detail.AssignedMinutes, &detail.Status,
			&userIDNull, &usernameNull, &userRoleNull, &balanceNull, &userCreatedNull,
			&pcIDNull, &pcNameNull, &ipNull, &macNull, &pcStatusNull, &lastPingNull,
		); err != nil {
			return nil, err
		}
		if endTimeNull.Valid {
			endTime := endTimeNull.Time
			detail.EndTime = &endTime
		}
		if userIDNull.Valid {
			detail.User = &models.User{
				ID:             userIDNull.Int64,
				Username:       usernameNull.String,
				Role:           userRoleNull.String,
				BalanceMinutes: int(balanceNull.Int64),
				CreatedAt:      userCreatedNull.Time,
			}
		}
		if pcIDNull.Valid {
			pc := models.Pc{
				ID:     pcIDNull.Int64,
				Name:   pcNameNull.String,
				Status: pcStatusNull.String,
			}
			if ipNull.Valid {
				pc.IPAddress = ipNull.String
			}
			if macNull.Valid {
				pc.MACAddress = macNull.String
			}
			if lastPingNull.Valid {
				lastPing := lastPingNull.Time
				pc.LastPing = &lastPing
			}
			detail.Pc = &pc
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *Store) GetActiveSessionForPc(ctx context.Context, pcID int64) (models.RentalSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, pc_id, start_time, end_time, assigned_minutes, status
		FROM rental_sessions
		WHERE pc_id = $1 AND status = $2
		ORDER BY start_time DESC
		LIMIT 1
	`, pcID, models.SessionStatusActive)
	return scanSession(row)
}

func (s *Store) GetStats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM pcs),
			(SELECT COUNT(*) FROM rental_sessions WHERE status = $1)
	`, models.SessionStatusActive)
	if err := row.Scan(&stats.TotalUsers, &stats.TotalPcs, &stats.ActiveSessions); err != nil {
		return models.Stats{}, err
	}
	return stats, nil
}

func (s *Store) RecordAdminLog(ctx context.Context, adminID int64, action, details string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_logs (admin_id, action, details)
		VALUES ($1, $2, $3)
	`, adminID, action, nullIfEmpty(details))
	return err
}

func (s *Store) CreateAuthSession(ctx context.Context, userID int64, expiresAt time.Time) (store.AuthSession, error) {
	token := uuid.NewString()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return store.AuthSession{}, err
	}
	return store.AuthSession{Token: token, UserID: userID, ExpiresAt: expiresAt}, nil
}

func (s *Store) GetAuthSession(ctx context.Context, token string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.password, u.role, u.balance_minutes, u.created_at
		FROM auth_sessions a
		JOIN users u ON u.id = a.user_id
		WHERE a.token = $1 AND a.expires_at > NOW()
	`, token)
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.BalanceMinutes, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrAuthSessionNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE token = $1`, token)
	return err
}

func (s *Store) DeleteExpiredAuthSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func sessionFilterClause(filter store.SessionFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	if filter.Active {
		args = append(args, models.SessionStatusActive)
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.PcID != 0 {
		args = append(args, filter.PcID)
		conditions = append(conditions, fmt.Sprintf("s.pc_id = $%d", len(args)))
	}
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("s.user_id = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.BalanceMinutes, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, store.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanPc(row pgx.Row) (models.Pc, error) {
	var pc models.Pc
	var ipNull, macNull sql.NullString
	var lastPingNull sql.NullTime
	if err := row.Scan(&pc.ID, &pc.Name, &ipNull, &macNull, &pc.Status, &lastPingNull); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Pc{}, store.ErrPcNotFound
		}
		return models.Pc{}, err
	}
	if ipNull.Valid {
		pc.IPAddress = ipNull.String
	}
	if macNull.Valid {
		pc.MACAddress = macNull.String
	}
	if lastPingNull.Valid {
		lastPing := lastPingNull.Time
		pc.LastPing = &lastPing
	}
	return pc, nil
}

func scanSession(row pgx.Row) (models.RentalSession, error) {
	var session models.RentalSession
	var endTimeNull sql.NullTime
	if err := row.Scan(&session.ID, &session.UserID, &session.PcID, &session.StartTime, &endTimeNull, &session.AssignedMinutes, &session.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RentalSession{}, store.ErrSessionNotFound
		}
		return models.RentalSession{}, err
	}
	if endTimeNull.Valid {
		endTime := endTimeNull.Time
		session.EndTime = &endTime
	}
	return session, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

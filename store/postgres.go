package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type PostgresConfig struct {
	DSN          string        `envconfig:"DSN" split_words:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"8"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"10s"`
}

// Postgres persists users, slots, appointments and call summaries via bun.
type Postgres struct {
	db *bun.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	)
	sqldb := sql.OpenDB(connector)
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &Postgres{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// EnsureSchema creates the four tables when absent. Slot seeding itself is
// an admin concern; see CreateSlots.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	models := []any{
		(*User)(nil),
		(*Slot)(nil),
		(*Appointment)(nil),
		(*CallSummary)(nil),
	}
	for _, m := range models {
		if _, err := p.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

// CreateSlots inserts calendar slots, skipping ones that already exist.
func (p *Postgres) CreateSlots(ctx context.Context, slots []Slot) error {
	if len(slots) == 0 {
		return nil
	}
	_, err := p.db.NewInsert().
		Model(&slots).
		On("CONFLICT (date, time) DO NOTHING").
		Exec(ctx)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) UserByPhone(ctx context.Context, phone string) (*User, error) {
	user := new(User)
	err := p.db.NewSelect().
		Model(user).
		Where("phone_number = ?", phone).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user by phone: %w", err)
	}
	return user, nil
}

func (p *Postgres) CreateUser(ctx context.Context, phone, name string) (*User, error) {
	user := &User{
		PhoneNumber: phone,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := p.db.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	log.Info().Str("phone", phone).Msg("created new user")
	return user, nil
}

func (p *Postgres) AvailableSlots(ctx context.Context, date string) ([]Slot, error) {
	q := p.db.NewSelect().
		Model((*Slot)(nil)).
		Where("is_booked = ?", false).
		Order("date ASC", "time ASC")
	if date != "" {
		q = q.Where("date = ?", date)
	}

	var slots []Slot
	if err := q.Scan(ctx, &slots); err != nil {
		return nil, fmt.Errorf("select available slots: %w", err)
	}
	return slots, nil
}

func (p *Postgres) ActiveAppointmentAt(ctx context.Context, date, tm string) (*Appointment, error) {
	appt := new(Appointment)
	err := p.db.NewSelect().
		Model(appt).
		Where("date = ?", date).
		Where("time = ?", tm).
		Where("status = ?", StatusBooked).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select appointment at slot: %w", err)
	}
	return appt, nil
}

func (p *Postgres) BookAppointment(ctx context.Context, phone, date, tm, reason string) (*Appointment, error) {
	appt := &Appointment{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Date:        date,
		Time:        tm,
		Status:      StatusBooked,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}

	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := claimSlot(ctx, tx, date, tm); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(appt).Exec(ctx); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("phone", phone).Str("date", date).Str("time", tm).Msg("booked appointment")
	return appt, nil
}

func (p *Postgres) AppointmentsByPhone(ctx context.Context, phone, status string) ([]Appointment, error) {
	q := p.db.NewSelect().
		Model((*Appointment)(nil)).
		Where("phone_number = ?", phone).
		Order("date ASC", "time ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var appts []Appointment
	if err := q.Scan(ctx, &appts); err != nil {
		return nil, fmt.Errorf("select appointments by phone: %w", err)
	}
	return appts, nil
}

func (p *Postgres) CancelAppointment(ctx context.Context, phone, date, tm string) (*Appointment, error) {
	appt := new(Appointment)

	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(appt).
			Set("status = ?", StatusCancelled).
			Where("phone_number = ?", phone).
			Where("date = ?", date).
			Where("time = ?", tm).
			Where("status = ?", StatusBooked).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("cancel appointment: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrAppointmentNotFound
		}
		return releaseSlot(ctx, tx, date, tm)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("phone", phone).Str("date", date).Str("time", tm).Msg("cancelled appointment")
	return appt, nil
}

func (p *Postgres) ModifyAppointment(ctx context.Context, phone, oldDate, oldTime, newDate, newTime string) (*Appointment, error) {
	appt := new(Appointment)

	err := p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := claimSlot(ctx, tx, newDate, newTime); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model(appt).
			Set("date = ?", newDate).
			Set("time = ?", newTime).
			Where("phone_number = ?", phone).
			Where("date = ?", oldDate).
			Where("time = ?", oldTime).
			Where("status = ?", StatusBooked).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("modify appointment: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrAppointmentNotFound
		}

		return releaseSlot(ctx, tx, oldDate, oldTime)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("phone", phone).
		Str("from", oldDate+" "+oldTime).
		Str("to", newDate+" "+newTime).
		Msg("modified appointment")
	return appt, nil
}

func (p *Postgres) SaveCallSummary(ctx context.Context, phone, summary string) (*CallSummary, error) {
	if phone == "" {
		phone = "unknown"
	}
	record := &CallSummary{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Summary:     summary,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := p.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert call summary: %w", err)
	}
	log.Info().Str("phone", phone).Msg("saved call summary")
	return record, nil
}

func (p *Postgres) SummariesByPhone(ctx context.Context, phone string) ([]CallSummary, error) {
	var summaries []CallSummary
	err := p.db.NewSelect().
		Model((*CallSummary)(nil)).
		Where("phone_number = ?", phone).
		Order("created_at DESC").
		Scan(ctx, &summaries)
	if err != nil {
		return nil, fmt.Errorf("select call summaries: %w", err)
	}
	return summaries, nil
}

// claimSlot flips a slot to booked only when it is currently available.
// The conditional update is what makes concurrent bookings of the same slot
// resolve to a single winner.
func claimSlot(ctx context.Context, tx bun.Tx, date, tm string) error {
	res, err := tx.NewUpdate().
		Model((*Slot)(nil)).
		Set("is_booked = ?", true).
		Where("date = ?", date).
		Where("time = ?", tm).
		Where("is_booked = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("claim slot: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrSlotUnavailable
	}
	return nil
}

func releaseSlot(ctx context.Context, tx bun.Tx, date, tm string) error {
	_, err := tx.NewUpdate().
		Model((*Slot)(nil)).
		Set("is_booked = ?", false).
		Where("date = ?", date).
		Where("time = ?", tm).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

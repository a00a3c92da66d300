package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ybieul/saas-barbearia/libs/config"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/civil"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/model"
	"github.com/ybieul/saas-barbearia/services/booking-service/internal/storage"
)

// Legacy rows were written to timestamptz columns in one of two ways.
const (
	// modeFalseUTC: the local wall clock was stored as if it were UTC.
	modeFalseUTC = "false-utc"
	// modeInstant: the stored instant is correct and must be shifted into
	// the tenant zone.
	modeInstant = "instant"
)

var errDryRun = errors.New("dry run")

type repairReport struct {
	Scanned   int
	Inserted  int
	Existing  int
	Conflicts int
	Invalid   int
}

type legacyRow struct {
	ID             string
	TenantID       string
	ProfessionalID string
	ServiceID      string
	ClientID       string
	StartAt        time.Time
	Duration       int
	Status         string
	Timezone       string
}

// legacyWall converts a legacy timestamptz into the wall-clock value stored
// in appointments.start_at.
func legacyWall(t time.Time, mode string, loc *time.Location) (time.Time, error) {
	switch mode {
	case modeFalseUTC:
		return civil.Wall(t.UTC()), nil
	case modeInstant:
		if loc == nil {
			return time.Time{}, errors.New("instant mode needs a tenant timezone")
		}
		return civil.Wall(t.In(loc)), nil
	default:
		return time.Time{}, fmt.Errorf("unknown mode %q (want %s or %s)", mode, modeFalseUTC, modeInstant)
	}
}

func newRepairCmd(v *viper.Viper) *cobra.Command {
	var (
		table  string
		mode   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "repair-timestamps",
		Short: "Copy legacy appointments into wall-clock storage",
		Long: "Reads a legacy appointments table with timestamptz start times, converts each\n" +
			"start into the tenant's wall clock and inserts it into appointments. Rows that\n" +
			"already exist are skipped; rows overlapping an active appointment are reported.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := legacyWall(time.Time{}, mode, time.UTC); err != nil {
				return err
			}
			ctx, cancel, pool, err := openPool(cmd, v)
			if err != nil {
				return err
			}
			defer cancel()
			defer pool.Close()

			var report repairReport
			err = pool.InTx(ctx, func(tx pgx.Tx) error {
				rows, err := loadLegacyRows(ctx, tx, table)
				if err != nil {
					return err
				}
				for _, row := range rows {
					if err := repairRow(ctx, tx, row, mode, &report); err != nil {
						return err
					}
				}
				if dryRun {
					return errDryRun
				}
				return nil
			})
			if err != nil && !errors.Is(err, errDryRun) {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written")
			}
			fmt.Fprintf(out, "scanned=%d inserted=%d existing=%d conflicts=%d invalid=%d\n",
				report.Scanned, report.Inserted, report.Existing, report.Conflicts, report.Invalid)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "legacy_appointments", "legacy source table")
	cmd.Flags().StringVar(&mode, "mode", modeFalseUTC, "how legacy times were written: false-utc or instant")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "roll back after reporting")
	return cmd
}

func loadLegacyRows(ctx context.Context, tx pgx.Tx, table string) ([]legacyRow, error) {
	source := pgx.Identifier{table}.Sanitize()
	rows, err := tx.Query(ctx, `
		SELECT l.id::text, l.tenant_id::text, l.professional_id::text, l.service_id::text,
		       l.client_id::text, l.start_at, l.duration_minutes, l.status, t.timezone
		FROM `+source+` l
		JOIN tenants t ON t.id = l.tenant_id
		ORDER BY l.start_at`)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (legacyRow, error) {
		var r legacyRow
		err := row.Scan(&r.ID, &r.TenantID, &r.ProfessionalID, &r.ServiceID,
			&r.ClientID, &r.StartAt, &r.Duration, &r.Status, &r.Timezone)
		return r, err
	})
}

// repairRow inserts one row under a savepoint so an overlap only discards
// that row.
func repairRow(ctx context.Context, tx pgx.Tx, row legacyRow, mode string, report *repairReport) error {
	report.Scanned++

	status, err := model.ParseStatus(row.Status)
	if err != nil || row.Duration <= 0 {
		report.Invalid++
		return nil
	}
	var loc *time.Location
	if mode == modeInstant {
		if loc, err = config.Location(row.Timezone); err != nil {
			report.Invalid++
			return nil
		}
	}
	start, err := legacyWall(row.StartAt, mode, loc)
	if err != nil {
		return err
	}
	end := start.Add(time.Duration(row.Duration) * time.Minute)

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	tag, err := sp.Exec(ctx, `
		INSERT INTO appointments (id, tenant_id, professional_id, service_id, client_id, start_at, end_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		row.ID, row.TenantID, row.ProfessionalID, row.ServiceID, row.ClientID, start, end, string(status))
	if err != nil {
		_ = sp.Rollback(ctx)
		if storage.IsConflict(err) {
			report.Conflicts++
			return nil
		}
		return fmt.Errorf("insert %s: %w", row.ID, err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		report.Existing++
	} else {
		report.Inserted++
	}
	return nil
}

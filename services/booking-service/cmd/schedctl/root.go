package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ybieul/saas-barbearia/libs/db"
)

// Flags are read through viper so every one can also come from the
// environment, e.g. --database-url from DATABASE_URL.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "schedctl",
		Short:         "Booking database operations",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	root.PersistentFlags().Duration("timeout", 5*time.Minute, "overall command timeout")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(
		newMigrateCmd(v),
		newRepairCmd(v),
		newImportCalendarCmd(v),
		newHealthCmd(v),
	)
	return root
}

func openPool(cmd *cobra.Command, v *viper.Viper) (context.Context, context.CancelFunc, *db.Pool, error) {
	url := strings.TrimSpace(v.GetString("database-url"))
	if url == "" {
		return nil, nil, nil, errors.New("--database-url or DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration("timeout"))
	pool, err := db.Open(ctx, url, db.PoolOptions{MaxConns: 2, ApplicationName: "schedctl"})
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, pool, nil
}

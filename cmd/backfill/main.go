// Command backfill copies email and phone from the auth provider's
// users table onto profiles that are missing them. Profiles created
// before contact details were synced at signup have NULL columns; this
// fills them in without clobbering values already present.
package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nueats/api/internal/config"
	"github.com/nueats/api/internal/database"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report profiles that would change without writing")
	flag.Parse()

	dbURL := config.MustDatabaseURL(logrus.Fatalf)

	// The auth schema usually lives in the same database; a separate
	// auth instance can be pointed at with AUTH_DATABASE_URL.
	authURL := os.Getenv("AUTH_DATABASE_URL")
	if authURL == "" {
		authURL = dbURL
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logrus.WithError(err).Fatal("unable to connect to database")
	}
	defer pool.Close()

	authPool := pool
	if authURL != dbURL {
		authPool, err = pgxpool.New(ctx, authURL)
		if err != nil {
			logrus.WithError(err).Fatal("unable to connect to auth database")
		}
		defer authPool.Close()
	}

	if err := pool.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("unable to ping database")
	}

	queries := database.New(pool)

	profiles, err := queries.ListProfilesMissingContact(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to list profiles")
	}
	logrus.WithField("count", len(profiles)).Info("profiles missing contact details")

	updated, skipped := 0, 0
	for _, p := range profiles {
		email, phone, err := lookupAuthContact(ctx, authPool, p.ID.String())
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				logrus.WithField("id", p.ID).Warn("no auth user for profile, skipping")
				skipped++
				continue
			}
			logrus.WithError(err).WithField("id", p.ID).Error("auth lookup failed")
			skipped++
			continue
		}

		params := database.UpdateProfileContactParams{ID: p.ID}
		if !p.Email.Valid && email.Valid {
			params.Email = email
		}
		if !p.Phone.Valid && phone.Valid {
			params.Phone = phone
		}
		if !params.Email.Valid && !params.Phone.Valid {
			skipped++
			continue
		}

		if *dryRun {
			logrus.WithFields(logrus.Fields{
				"id":    p.ID,
				"email": params.Email.String,
				"phone": params.Phone.String,
			}).Info("would update")
			continue
		}

		if err := queries.UpdateProfileContact(ctx, params); err != nil {
			logrus.WithError(err).WithField("id", p.ID).Error("failed to update profile")
			continue
		}
		updated++
	}

	logrus.WithFields(logrus.Fields{
		"updated": updated,
		"skipped": skipped,
		"total":   len(profiles),
	}).Info("backfill completed")
}

// lookupAuthContact reads contact details from the auth schema. Profile
// IDs mirror the auth user IDs, so the join key is the profile ID
// itself.
func lookupAuthContact(ctx context.Context, pool *pgxpool.Pool, userID string) (email, phone pgtype.Text, err error) {
	err = pool.QueryRow(ctx,
		`SELECT email, phone FROM auth.users WHERE id = $1`,
		userID,
	).Scan(&email, &phone)
	return email, phone, err
}

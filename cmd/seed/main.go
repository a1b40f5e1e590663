// Command seed provisions a dashboard admin account, the starter menu,
// and a trailing week of synthetic order history so the analytics
// screens have something to show on a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/nueats/api/internal/config"
	"github.com/nueats/api/internal/database"
	"github.com/nueats/api/internal/enum"
)

type menuSeed struct {
	name     string
	category string
	price    string
	prep     int32
}

var starterMenu = []menuSeed{
	{"Chop Suey", enum.MenuCategoryMeals, "60.00", 15},
	{"Pork Sinigang", enum.MenuCategoryMeals, "85.00", 20},
	{"Chicken Adobo", enum.MenuCategoryMeals, "75.00", 18},
	{"Tapsilog", enum.MenuCategoryMeals, "95.00", 12},
	{"Lumpia Shanghai", enum.MenuCategorySnacks, "45.00", 10},
	{"Cheese Sticks", enum.MenuCategorySnacks, "35.00", 8},
	{"Orange Juice", enum.MenuCategoryBeverages, "15.00", 2},
	{"Iced Tea", enum.MenuCategoryBeverages, "20.00", 2},
	{"Leche Flan", enum.MenuCategoryDesserts, "40.00", 3},
	{"Halo-Halo", enum.MenuCategoryDesserts, "65.00", 7},
}

var customerNames = []string{
	"Maria Santos", "Jose Reyes", "Ana Cruz", "Paolo Garcia",
	"Liza Mendoza", "Carlo Dela Cruz", "Grace Ramos", "Miguel Torres",
}

func main() {
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	days := flag.Int("days", 6, "Days of synthetic order history to generate")
	flag.Parse()

	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	if *email == "" {
		*email = "admin@nueats.ph"
	}
	if *password == "" {
		*password = "password123"
		logrus.Warn("using default password 'password123', change immediately in production")
	}
	if *name == "" {
		*name = "NU Eats Admin"
	}

	dbURL := config.MustDatabaseURL(logrus.Fatalf)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logrus.WithError(err).Fatal("unable to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("unable to ping database")
	}
	logrus.Info("connected to database")

	// All or nothing: a partially seeded database is worse than none.
	tx, err := pool.Begin(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	queries := database.New(pool).WithTx(tx)

	adminID, err := seedAdmin(ctx, queries, *email, *password, *name)
	if err != nil {
		logrus.WithError(err).Fatal("failed to seed admin")
	}

	menu, err := seedMenu(ctx, queries)
	if err != nil {
		logrus.WithError(err).Fatal("failed to seed menu")
	}

	customers, err := seedCustomers(ctx, queries)
	if err != nil {
		logrus.WithError(err).Fatal("failed to seed customers")
	}

	orders, err := seedOrderHistory(ctx, queries, menu, customers, *days)
	if err != nil {
		logrus.WithError(err).Fatal("failed to seed order history")
	}

	if err := tx.Commit(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to commit")
	}

	logrus.WithFields(logrus.Fields{
		"admin_id":  adminID,
		"menu":      len(menu),
		"customers": len(customers),
		"orders":    orders,
	}).Info("seed completed")
}

// seedAdmin creates the admin account if no profile with the email
// exists yet.
func seedAdmin(ctx context.Context, queries *database.Queries, email, password, name string) (uuid.UUID, error) {
	existing, err := queries.GetProfileByEmail(ctx, email)
	if err == nil {
		logrus.WithField("id", existing.ID).Info("admin already exists, skipping")
		return existing.ID, nil
	}
	if err != pgx.ErrNoRows {
		return uuid.Nil, fmt.Errorf("check admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	profile, err := queries.CreateProfile(ctx, database.CreateProfileParams{
		FullName:       name,
		Email:          pgtype.Text{String: email, Valid: true},
		Role:           enum.RoleAdmin,
		HashedPassword: pgtype.Text{String: string(hashed), Valid: true},
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create admin: %w", err)
	}
	return profile.ID, nil
}

func seedMenu(ctx context.Context, queries *database.Queries) ([]database.MenuItem, error) {
	items := make([]database.MenuItem, 0, len(starterMenu))
	for _, m := range starterMenu {
		var price pgtype.Numeric
		if err := price.Scan(m.price); err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", m.name, err)
		}
		item, err := queries.UpsertMenuItem(ctx, database.CreateMenuItemParams{
			Name:        m.name,
			Category:    m.category,
			Price:       price,
			IsAvailable: true,
			PrepMinutes: m.prep,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert %s: %w", m.name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func seedCustomers(ctx context.Context, queries *database.Queries) ([]database.Profile, error) {
	profiles := make([]database.Profile, 0, len(customerNames))
	for i, name := range customerNames {
		email := fmt.Sprintf("customer%d@example.com", i+1)
		existing, err := queries.GetProfileByEmail(ctx, email)
		if err == nil {
			profiles = append(profiles, existing)
			continue
		}
		if err != pgx.ErrNoRows {
			return nil, fmt.Errorf("check customer %s: %w", email, err)
		}
		profile, err := queries.CreateProfile(ctx, database.CreateProfileParams{
			FullName: name,
			Email:    pgtype.Text{String: email, Valid: true},
			Role:     enum.RoleCustomer,
		})
		if err != nil {
			return nil, fmt.Errorf("create customer %s: %w", email, err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// seedOrderHistory writes a trailing window of orders with items,
// payments, and the occasional cancellation or rating. Quantities and
// statuses are randomized but weighted toward completed orders so the
// dashboard figures look plausible.
func seedOrderHistory(ctx context.Context, queries *database.Queries, menu []database.MenuItem, customers []database.Profile, days int) (int, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	total := 0

	for d := days; d >= 1; d-- {
		day := time.Now().AddDate(0, 0, -d)
		orderCount := 8 + rng.Intn(10)

		for i := 0; i < orderCount; i++ {
			createdAt := time.Date(day.Year(), day.Month(), day.Day(),
				8+rng.Intn(12), rng.Intn(60), 0, 0, time.Local)
			customer := customers[rng.Intn(len(customers))]

			status := database.OrderStatusCompleted
			switch roll := rng.Intn(10); {
			case roll == 0:
				status = database.OrderStatusCancelled
			case roll == 1:
				status = database.OrderStatusPending
			}

			itemCount := 1 + rng.Intn(3)
			orderTotal := decimal.Zero
			type line struct {
				item database.MenuItem
				qty  int32
			}
			lines := make([]line, 0, itemCount)
			for j := 0; j < itemCount; j++ {
				item := menu[rng.Intn(len(menu))]
				qty := int32(1 + rng.Intn(2))
				lines = append(lines, line{item, qty})

				var price decimal.Decimal
				if v, err := item.Price.Value(); err == nil && v != nil {
					price, _ = decimal.NewFromString(v.(string))
				}
				orderTotal = orderTotal.Add(price.Mul(decimal.NewFromInt32(qty)))
			}

			var totalAmount pgtype.Numeric
			if err := totalAmount.Scan(orderTotal.StringFixed(2)); err != nil {
				return total, fmt.Errorf("total amount: %w", err)
			}

			order, err := queries.CreateOrder(ctx, database.CreateOrderParams{
				CustomerID:  customer.ID,
				Status:      status,
				TotalAmount: totalAmount,
				CreatedAt:   createdAt,
			})
			if err != nil {
				return total, fmt.Errorf("create order: %w", err)
			}

			for _, l := range lines {
				_, err := queries.CreateOrderItem(ctx, database.CreateOrderItemParams{
					OrderID:    order.ID,
					MenuItemID: l.item.ID,
					Quantity:   l.qty,
					UnitPrice:  l.item.Price,
				})
				if err != nil {
					return total, fmt.Errorf("create order item: %w", err)
				}
			}

			paymentStatus := database.PaymentStatusPending
			switch status {
			case database.OrderStatusCompleted:
				paymentStatus = database.PaymentStatusPaid
			case database.OrderStatusCancelled:
				paymentStatus = database.PaymentStatusCancelled
			}
			methods := []string{enum.PaymentMethodCash, enum.PaymentMethodGCash, enum.PaymentMethodCard}
			_, err = queries.CreatePayment(ctx, database.CreatePaymentParams{
				OrderID:   order.ID,
				Method:    methods[rng.Intn(len(methods))],
				Status:    paymentStatus,
				Amount:    totalAmount,
				CreatedAt: createdAt,
			})
			if err != nil {
				return total, fmt.Errorf("create payment: %w", err)
			}

			if status == database.OrderStatusCancelled {
				reasons := []string{enum.CancelReasonOutOfStock, enum.CancelReasonCustomerRequest, enum.CancelReasonOther}
				_, err := queries.CreateCancellation(ctx, database.CreateCancellationParams{
					OrderID:     order.ID,
					Reason:      reasons[rng.Intn(len(reasons))],
					CancelledAt: createdAt.Add(10 * time.Minute),
				})
				if err != nil {
					return total, fmt.Errorf("create cancellation: %w", err)
				}
			}

			if status == database.OrderStatusCompleted && rng.Intn(3) == 0 {
				_, err := queries.CreateRating(ctx, database.CreateRatingParams{
					OrderID:   order.ID,
					Stars:     int32(3 + rng.Intn(3)),
					CreatedAt: createdAt.Add(time.Hour),
				})
				if err != nil {
					return total, fmt.Errorf("create rating: %w", err)
				}
			}

			total++
		}
	}
	return total, nil
}

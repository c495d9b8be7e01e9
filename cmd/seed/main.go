// Package main seeds a development database with an admin user, a starter
// catalog and a welcome promo.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	app "github.com/marketrun/platform/internal/app"
	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/services/accounts"
	"github.com/marketrun/platform/internal/app/services/catalogsvc"
	"github.com/marketrun/platform/internal/app/services/promos"
	"github.com/marketrun/platform/internal/app/storage"
	"github.com/marketrun/platform/internal/app/storage/supabase"
	"github.com/marketrun/platform/internal/database"
	"github.com/marketrun/platform/pkg/logger"
)

func main() {
	var (
		envFile       = flag.String("env", ".env", "Path to an optional .env file")
		adminEmail    = flag.String("admin-email", "admin@marketrun.test", "Admin account email")
		adminPassword = flag.String("admin-password", "", "Admin account password (required)")
	)
	flag.Parse()

	_ = godotenv.Load(*envFile)

	if *adminPassword == "" {
		log.Fatal("-admin-password is required")
	}

	ctx := context.Background()
	logg := logger.NewDefault("seed")

	client, err := database.NewClient(database.Config{})
	if err != nil {
		log.Fatalf("supabase client: %v", err)
	}
	store := supabase.New(client)

	application, err := app.New(app.Stores{
		Users:     store,
		Addresses: store,
		Catalog:   store,
		Carts:     store,
		Promos:    store,
		Wallets:   store,
		Orders:    store,
	}, app.Options{}, logg)
	if err != nil {
		log.Fatalf("build application: %v", err)
	}

	seedAdmin(ctx, application, store, *adminEmail, *adminPassword)
	seedCatalog(ctx, application.Catalog)
	seedPromos(ctx, application.Promos)

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, application *app.Application, users storage.UserStore, email, password string) {
	admin, err := application.Accounts.Register(ctx, accounts.RegisterInput{
		Email:    email,
		Name:     "Administrator",
		Password: password,
	})
	if err != nil {
		log.Printf("admin user: %v (skipping)", err)
		return
	}
	admin.Role = account.RoleAdmin
	if _, err := users.UpdateUser(ctx, admin); err != nil {
		log.Fatalf("promote admin: %v", err)
	}
	log.Printf("admin user %s created", email)
}

func seedCatalog(ctx context.Context, catalog *catalogsvc.Service) {
	produce, err := catalog.CreateCategory(ctx, "Fresh Produce", "")
	if err != nil {
		log.Printf("category: %v (skipping catalog)", err)
		return
	}
	grains, err := catalog.CreateCategory(ctx, "Grains & Staples", "")
	if err != nil {
		log.Printf("category: %v (skipping catalog)", err)
		return
	}

	seedProducts := []catalogsvc.ProductInput{
		{CategoryID: produce.ID, Name: "Fresh Tomatoes (basket)", BasePrice: 4500, InStock: true, Fresh: true},
		{CategoryID: produce.ID, Name: "Ugu Leaves (bunch)", BasePrice: 800, InStock: true, Fresh: true},
		{CategoryID: grains.ID, Name: "Ofada Rice (5kg)", BasePrice: 12000, InStock: true},
		{CategoryID: grains.ID, Name: "Honey Beans (paint bucket)", BasePrice: 9500, InStock: true},
		{CategoryID: grains.ID, Name: "Garri Ijebu (paint bucket)", BasePrice: 4000, InStock: true},
	}
	for _, in := range seedProducts {
		if _, err := catalog.CreateProduct(ctx, in); err != nil {
			log.Printf("product %s: %v", in.Name, err)
		}
	}
	log.Printf("catalog seeded")
}

func seedPromos(ctx context.Context, svc *promos.Service) {
	_, err := svc.Create(ctx, promos.CreateInput{
		Code:         "WELCOME10",
		DiscountType: promo.DiscountPercentage,
		Value:        10,
		MaxDiscount:  2000,
		MinimumOrder: 5000,
		ExpiresAt:    time.Now().AddDate(0, 3, 0),
		UsageLimit:   1000,
	})
	if err != nil {
		log.Printf("promo WELCOME10: %v", err)
		return
	}
	log.Printf("promo WELCOME10 seeded")
}

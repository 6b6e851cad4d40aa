package main

import (
	"context"
	"fmt"
	"log"
	"vendtrack/bootstrap"
	"vendtrack/config"
	"vendtrack/models"
	"vendtrack/service"

	"github.com/joho/godotenv"
)

const seedPassword = "password123"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := service.WithActor(context.Background(), "seed")
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize backends: %v", err)
	}
	defer app.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedCommodities(ctx, app.Commodities); err != nil {
		log.Fatalf("Failed to seed commodities: %v", err)
	}

	if err := seedUsers(ctx, app.Auth, app.Users); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedCommodities(ctx context.Context, commodities *service.CommodityService) error {
	existing, err := commodities.GetAllCommodities(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("  • %d commodities already present, skipping", len(existing))
		return nil
	}

	items := []service.CommodityInput{
		{Name: "Dondurma Kornet", Code: "DK-01", Unit: "adet", Category: "iceCream"},
		{Name: "Dondurma Kup", Code: "DK-02", Unit: "adet", Category: "iceCream"},
		{Name: "Sandvic", Code: "TD-01", Unit: "adet", Category: "fridge"},
		{Name: "Ayran", Code: "TD-02", Unit: "adet", Category: "fridge"},
	}

	for _, item := range items {
		if _, err := commodities.CreateCommodity(ctx, item); err != nil {
			return fmt.Errorf("failed to create commodity %s: %w", item.Name, err)
		}
		log.Printf("  ✓ Created commodity: %s", item.Name)
	}

	return nil
}

func seedUsers(ctx context.Context, authService *service.AuthService, users *service.UserService) error {
	inputs := []service.CreateUserInput{
		{Email: "admin@vendtrack.local", Name: "Admin", Role: models.RoleAdmin},
		{Email: "routeman@vendtrack.local", Name: "Route Man", Role: models.RoleRouteman},
		{Email: "operator@vendtrack.local", Name: "Operator", Role: models.RoleOperator, Permissions: models.Permissions{IceCream: true}},
		{Email: "dealer@vendtrack.local", Name: "Dealer", Role: models.RoleDealer},
		{Email: "viewer@vendtrack.local", Name: "Viewer", Role: models.RoleViewer},
	}

	created := map[models.UserRole]*models.User{}
	for _, input := range inputs {
		input.Password = seedPassword
		user, err := authService.CreateUser(ctx, input)
		if err != nil {
			if service.KindOf(err) == service.KindConflict {
				log.Printf("  • User %s already exists, skipping", input.Email)
				continue
			}
			return fmt.Errorf("failed to create user %s: %w", input.Email, err)
		}
		created[user.Role] = user
		log.Printf("  ✓ Created user: %s (role: %s)", user.Email, user.Role)
	}

	// Assign the operator to the dealer
	dealer, operator := created[models.RoleDealer], created[models.RoleOperator]
	if dealer == nil || operator == nil {
		return nil
	}
	if _, err := users.UpdateUser(ctx, dealer.ID, map[string]interface{}{
		"assignedOperators": []string{operator.ID},
	}); err != nil {
		return fmt.Errorf("failed to update dealer: %w", err)
	}

	log.Println("  ✓ Updated dealer relationships")

	return nil
}

// Command seed loads the demo catalog into MongoDB and, when asked, creates
// an admin account.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/nexamart/nexamart-backend-go/config"
	"github.com/nexamart/nexamart-backend-go/database"
	"github.com/nexamart/nexamart-backend-go/models"
	"github.com/nexamart/nexamart-backend-go/utils"
)

func main() {
	file := flag.String("file", "seed/catalog.yaml", "catalog file to load")
	adminEmail := flag.String("admin-email", "", "create an admin account with this email")
	adminPassword := flag.String("admin-password", "", "password for the admin account")
	adminName := flag.String("admin-name", "Admin", "display name for the admin account")
	flag.Parse()

	config.LoadEnv()
	uri := config.GetEnv("MONGODB_URI", "")
	if uri == "" {
		log.Fatal("MONGODB_URI is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, db, err := database.ConnectDB(ctx, uri, config.GetEnv("MONGODB_DB", "nexamart"))
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer client.Disconnect(context.Background())

	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes: ", err)
	}

	catalog, err := database.LoadCatalog(*file)
	if err != nil {
		log.Fatal("Failed to load catalog: ", err)
	}
	categories := database.NewCategoryStore(db)
	if err := database.SeedCatalog(ctx, categories, database.NewProductStore(db, categories), catalog); err != nil {
		log.Fatal("Seeding failed: ", err)
	}

	if *adminEmail != "" {
		if err := ensureAdmin(ctx, database.NewUserStore(db), *adminName, *adminEmail, *adminPassword); err != nil {
			log.Fatal("Failed to create admin: ", err)
		}
	}
	invalidateCache(ctx)
	log.Println("Seeding complete.")
}

// invalidateCache drops cached catalog reads so the API serves the new stock.
func invalidateCache(ctx context.Context) {
	url := config.GetEnv("REDIS_URL", "")
	if url == "" {
		return
	}
	cache, err := database.ConnectRedis(ctx, url, 0)
	if err != nil {
		log.Println("Cache not invalidated: ", err)
		return
	}
	defer cache.Close()
	if err := cache.Invalidate(ctx); err != nil {
		log.Println("Cache not invalidated: ", err)
	}
}

func ensureAdmin(ctx context.Context, users *database.UserStore, name, email, password string) error {
	if _, err := users.FindByEmail(ctx, email); err == nil {
		log.Printf("Admin %s already exists", email)
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if len(password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	if err := users.Create(ctx, &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Role:     models.RoleAdmin,
	}); err != nil {
		return err
	}
	log.Printf("Admin %s created", email)
	return nil
}

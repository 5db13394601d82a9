package db

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	models "github.com/arcadialabs-io/actionbridge/dbmodels"
)

var DB *gorm.DB

func ConnectDB() {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable", host, user, pass, name)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Migration failed:", err)
	}
}

// Migrate creates or updates the schema for every model this core owns.
// UserIntegration is included so local environments work standalone; in
// production the integrations service owns that table and the migration is a
// no-op.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.DetectedAction{},
		&models.UserIntegration{},
		&models.Task{},
		&models.Notification{},
		&models.ExecutionLog{},
	)
}

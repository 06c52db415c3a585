package main

import (
	"log"

	"github.com/pm-health/patient-service/internal/db"
)

func main() {
	log.Println("Patient Schema Migration - Starting")

	// Connect to database
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✓ Migration completed successfully")
	log.Println("Patient Schema Migration - Finished")
}

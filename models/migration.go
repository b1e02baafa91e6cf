package models

import (
	"log"

	"bitbucket.org/mmdatafocus/moldtrack_backend/config"
)

// MigrateTable runs AutoMigrate for all tables this service owns. Reference
// tables (employees, companies) are included so a fresh environment comes up
// without a separate seed step.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Mold{},
		&TeflonLog{},
		&MoldLocationLog{},
		&Employee{},
		&Company{},
	)
	if err != nil {
		log.Printf("auto migrate failed: %v", err)
	}
}

package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/config"
	"github.com/vigiaproxy/vigia/internal/database"
	"github.com/vigiaproxy/vigia/internal/models"
	"github.com/vigiaproxy/vigia/internal/services"
)

// Seeds a demo policy set: an academic-hours policy that blocks social media
// on weekday mornings, plus the lookup rows its condition points at.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config: ", err)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	if err := seed(db); err != nil {
		log.Fatal(err)
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
	fmt.Println("  You can now start the application and see sample data.")
}

// seed is idempotent: every row is looked up before it is created, so running
// the binary against an already-seeded database changes nothing.
func seed(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Policy{},
		&models.Rule{},
		&models.Zone{},
		&models.URLCategory{},
		&models.URL{},
		&models.Service{},
		&models.HTTPMethod{},
		&models.Request{},
		&models.User{},
		&models.Notification{},
		&models.NotificationProvider{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	fmt.Println("✓ Database migrated successfully")

	// Zones
	zones := []models.Zone{
		{Name: "LAN Estudiantes", Description: "Red cableada de laboratorios"},
		{Name: "WiFi Invitados", Description: "Red inalámbrica abierta"},
	}
	for _, zone := range zones {
		result := db.Where("name = ?", zone.Name).FirstOrCreate(&zone)
		if result.Error != nil {
			log.Printf("Failed to seed zone %s: %v", zone.Name, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created zone: %s\n", zone.Name)
		} else {
			fmt.Printf("  Zone already exists: %s\n", zone.Name)
		}
	}

	// URL category plus its member URLs
	category := models.URLCategory{Name: "Redes Sociales", Description: "Plataformas de redes sociales"}
	result := db.Where("name = ?", category.Name).FirstOrCreate(&category)
	if result.Error != nil {
		return fmt.Errorf("seed category: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		fmt.Printf("✓ Created category: %s\n", category.Name)
	} else {
		fmt.Printf("  Category already exists: %s\n", category.Name)
	}

	for _, host := range []string{"facebook.com", "instagram.com", "tiktok.com", "x.com"} {
		u := models.URL{
			Scheme:     "https",
			Host:       host,
			Port:       443,
			Path:       "/",
			CategoryID: &category.ID,
		}
		result := db.Where("scheme = ? AND host = ? AND port = ? AND path = ? AND query = ?",
			u.Scheme, u.Host, u.Port, u.Path, u.Query).FirstOrCreate(&u)
		if result.Error != nil {
			log.Printf("Failed to seed url %s: %v", host, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created url: https://%s/\n", host)
		} else {
			fmt.Printf("  URL already exists: %s\n", host)
		}
	}

	// Services and HTTP methods
	serviceRows := []models.Service{
		{Name: "HTTP", Protocol: models.ProtocolTCP, Port: 80},
		{Name: "HTTPS", Protocol: models.ProtocolTCP, Port: 443},
	}
	for _, svc := range serviceRows {
		result := db.Where("protocol = ? AND port = ?", svc.Protocol, svc.Port).FirstOrCreate(&svc)
		if result.Error != nil {
			log.Printf("Failed to seed service %s: %v", svc.Name, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created service: %s (%s/%d)\n", svc.Name, svc.Protocol, svc.Port)
		}
	}

	for _, m := range []string{"GET", "POST"} {
		method := models.HTTPMethod{Method: m}
		result := db.Where("method = ?", m).FirstOrCreate(&method)
		if result.Error != nil {
			log.Printf("Failed to seed method %s: %v", m, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created http method: %s\n", m)
		}
	}

	// Policy with a scheduled DENY rule
	policy := models.Policy{
		UUID:    uuid.NewString(),
		Name:    "Politica Académica",
		Type:    "web-filter",
		Enabled: true,
	}
	result = db.Where("name = ?", policy.Name).FirstOrCreate(&policy)
	if result.Error != nil {
		return fmt.Errorf("seed policy: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		fmt.Printf("✓ Created policy: %s\n", policy.Name)
	} else {
		fmt.Printf("  Policy already exists: %s\n", policy.Name)
	}

	condition := fmt.Sprintf(`{
  "version": 1,
  "note": "Bloquear redes sociales en horario de clases",
  "match": {
    "url_categories": [%d],
    "http_methods": ["GET", "POST"]
  },
  "time": {
    "days": ["MON", "TUE", "WED", "THU", "FRI"],
    "start": "07:00",
    "end": "13:00",
    "tz": "America/Guayaquil"
  }
}`, category.ID)

	ruleService := services.NewRuleService(db)
	var existing models.Rule
	if err := db.Where("policy_id = ? AND priority = ?", policy.ID, 10).First(&existing).Error; err != nil {
		rule := models.Rule{
			PolicyID:  policy.ID,
			Priority:  10,
			Action:    models.ActionDeny,
			Enabled:   true,
			Condition: condition,
		}
		if err := ruleService.Create(&rule); err != nil {
			return fmt.Errorf("seed rule: %w", err)
		}
		fmt.Printf("✓ Created rule: %s priority %d (%s)\n", policy.Name, rule.Priority, rule.Action)
	} else {
		fmt.Printf("  Rule already exists: %s priority 10\n", policy.Name)
	}

	return nil
}

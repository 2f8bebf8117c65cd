package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

func setupReferenceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Zone{}, &models.URLCategory{}, &models.URL{},
		&models.Service{}, &models.HTTPMethod{},
	))
	return db
}

func TestReferenceService_Zones(t *testing.T) {
	svc := NewReferenceService(setupReferenceTestDB(t))

	zone := models.Zone{Name: "LAN", Description: "wired"}
	require.NoError(t, svc.CreateZone(&zone))

	assert.Error(t, svc.CreateZone(&models.Zone{Name: " "}))
	assert.ErrorIs(t, svc.CreateZone(&models.Zone{Name: "LAN"}), ErrReferenceExists)

	require.NoError(t, svc.UpdateZone(zone.ID, &models.Zone{Name: "WiFi"}))
	zones, err := svc.ListZones()
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "WiFi", zones[0].Name)

	require.NoError(t, svc.DeleteZone(zone.ID))
	assert.ErrorIs(t, svc.DeleteZone(zone.ID), ErrReferenceNotFound)

	// Deleted names can be reused.
	require.NoError(t, svc.CreateZone(&models.Zone{Name: "WiFi"}))
}

func TestReferenceService_URLNormalization(t *testing.T) {
	svc := NewReferenceService(setupReferenceTestDB(t))

	u := models.URL{Host: "Facebook.COM"}
	require.NoError(t, svc.CreateURL(&u))

	assert.Equal(t, "facebook.com", u.Host)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, 80, u.Port)
	assert.Equal(t, "/", u.Path)

	secure := models.URL{Host: "facebook.com", Scheme: "https"}
	require.NoError(t, svc.CreateURL(&secure))
	assert.Equal(t, 443, secure.Port)
}

func TestReferenceService_URLValidation(t *testing.T) {
	svc := NewReferenceService(setupReferenceTestDB(t))

	assert.Error(t, svc.CreateURL(&models.URL{Host: "  "}))
	assert.ErrorIs(t, svc.CreateURL(&models.URL{Host: "a.com", Port: 70000}), ErrInvalidPort)

	first := models.URL{Host: "a.com", Path: "/x"}
	require.NoError(t, svc.CreateURL(&first))
	dup := models.URL{Host: "a.com", Path: "/x"}
	assert.ErrorIs(t, svc.CreateURL(&dup), ErrReferenceExists)

	// Same host, different path is a distinct row.
	require.NoError(t, svc.CreateURL(&models.URL{Host: "a.com", Path: "/y"}))
}

func TestReferenceService_URLCategoryLink(t *testing.T) {
	svc := NewReferenceService(setupReferenceTestDB(t))

	category := models.URLCategory{Name: "Redes Sociales"}
	require.NoError(t, svc.CreateCategory(&category))

	u := models.URL{Host: "tiktok.com", CategoryID: &category.ID}
	require.NoError(t, svc.CreateURL(&u))

	urls, err := svc.ListURLs()
	require.NoError(t, err)
	require.Len(t, urls, 1)
	require.NotNil(t, urls[0].Category)
	assert.Equal(t, "Redes Sociales", urls[0].Category.Name)
}

func TestReferenceService_Services(t *testing.T) {
	svc := NewReferenceService(setupReferenceTestDB(t))

	https := models.Service{Name: "HTTPS", Protocol: models.ProtocolTCP, Port: 443}
	require.NoError(t, svc.CreateService(&https))

	assert.ErrorIs(t, svc.CreateService(&models.Service{Name: "x", Protocol: "ICMP", Port: 1}), ErrInvalidProtocol)
	assert.ErrorIs(t, svc.CreateService(&models.Service{Name: "x", Protocol: models.ProtocolUDP, Port: 0}), ErrInvalidPort)
	assert.ErrorIs(t, svc.CreateService(&models.Service{Name: "dup", Protocol: models.ProtocolTCP, Port: 443}), ErrReferenceExists)

	// Same port on the other protocol is fine.
	require.NoError(t, svc.CreateService(&models.Service{Name: "QUIC", Protocol: models.ProtocolUDP, Port: 443}))
}

func TestReferenceService_Methods(t *testing.T) {
	svc := NewReferenceService(setupReferenceTestDB(t))

	method := models.HTTPMethod{Method: " get "}
	require.NoError(t, svc.CreateMethod(&method))
	assert.Equal(t, "GET", method.Method)

	assert.ErrorIs(t, svc.CreateMethod(&models.HTTPMethod{Method: "GET"}), ErrReferenceExists)
	assert.Error(t, svc.CreateMethod(&models.HTTPMethod{Method: "  "}))

	methods, err := svc.ListMethods()
	require.NoError(t, err)
	assert.Len(t, methods, 1)
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

func TestSeedIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, seed(db))
	require.NoError(t, seed(db))

	var policy models.Policy
	require.NoError(t, db.Preload("Rules").Where("name = ?", "Politica Académica").First(&policy).Error)
	assert.True(t, policy.Enabled)
	require.Len(t, policy.Rules, 1)
	assert.Equal(t, 10, policy.Rules[0].Priority)
	assert.Equal(t, models.ActionDeny, policy.Rules[0].Action)

	var categories, urls, zones int64
	require.NoError(t, db.Model(&models.URLCategory{}).Count(&categories).Error)
	require.NoError(t, db.Model(&models.URL{}).Count(&urls).Error)
	require.NoError(t, db.Model(&models.Zone{}).Count(&zones).Error)
	assert.Equal(t, int64(1), categories)
	assert.Equal(t, int64(4), urls)
	assert.Equal(t, int64(2), zones)
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigiaproxy/vigia/internal/models"
)

func setupPolicyTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Policy{}, &models.Rule{}))
	return db
}

func TestPolicyService_Create(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	policy := models.Policy{Name: "Academica", Type: "web-filter", Enabled: true}
	require.NoError(t, svc.Create(&policy))
	assert.NotZero(t, policy.ID)
	assert.NotEmpty(t, policy.UUID)
}

func TestPolicyService_CreateRequiresName(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	err := svc.Create(&models.Policy{Name: "   "})
	assert.Error(t, err)
}

func TestPolicyService_DuplicateName(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	require.NoError(t, svc.Create(&models.Policy{Name: "Academica"}))
	err := svc.Create(&models.Policy{Name: "Academica"})
	assert.ErrorIs(t, err, ErrPolicyNameTaken)
}

func TestPolicyService_DeletedNameIsFreed(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	first := models.Policy{Name: "Academica"}
	require.NoError(t, svc.Create(&first))
	require.NoError(t, svc.Delete(first.ID))

	// The unique name constraint only covers live rows.
	require.NoError(t, svc.Create(&models.Policy{Name: "Academica"}))
}

func TestPolicyService_GetByID(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	policy := models.Policy{Name: "Academica"}
	require.NoError(t, svc.Create(&policy))

	got, err := svc.GetByID(policy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Academica", got.Name)

	_, err = svc.GetByID(9999)
	assert.ErrorIs(t, err, ErrPolicyNotFound)
}

func TestPolicyService_ListExcludesDeleted(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	a := models.Policy{Name: "A"}
	b := models.Policy{Name: "B"}
	require.NoError(t, svc.Create(&a))
	require.NoError(t, svc.Create(&b))
	require.NoError(t, svc.Delete(a.ID))

	live, err := svc.List()
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "B", live[0].Name)

	all, err := svc.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPolicyService_Update(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	policy := models.Policy{Name: "Academica", Enabled: true}
	require.NoError(t, svc.Create(&policy))

	err := svc.Update(policy.ID, &models.Policy{Name: "Laboral", Type: "web-filter", Enabled: false})
	require.NoError(t, err)

	got, err := svc.GetByID(policy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laboral", got.Name)
	assert.False(t, got.Enabled)
}

func TestPolicyService_DeleteCascadesToRules(t *testing.T) {
	db := setupPolicyTestDB(t)
	svc := NewPolicyService(db)

	policy := models.Policy{Name: "Academica"}
	require.NoError(t, svc.Create(&policy))
	require.NoError(t, db.Create(&models.Rule{
		UUID: "r-1", PolicyID: policy.ID, Priority: 10, Action: models.ActionDeny,
		Condition: `{"version":1,"note":"n","match":{"urls":["a.com"]}}`, Note: "n",
	}).Error)

	require.NoError(t, svc.Delete(policy.ID))

	var liveRules int64
	require.NoError(t, db.Model(&models.Rule{}).Where("policy_id = ?", policy.ID).Count(&liveRules).Error)
	assert.Zero(t, liveRules)

	assert.ErrorIs(t, svc.Delete(policy.ID), ErrPolicyNotFound)
}

package accounts

import (
	"regexp"
	"strings"
	"testing"

	"finsec/internal/apperr"
	"finsec/internal/models"
	"finsec/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite provides a test suite for the credential store
type StoreTestSuite struct {
	suite.Suite
	db    *storage.DB
	store *Store
}

// SetupTest runs before each test
func (suite *StoreTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.store = NewStore(db)
}

// TearDownTest runs after each test
func (suite *StoreTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *StoreTestSuite) TestCreateThenAuthenticate() {
	id, err := suite.store.Create("a@x.com", "pw123", "", "")
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), id)

	view, err := suite.store.Authenticate("a@x.com", "pw123")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, view.ID)
	assert.Equal(suite.T(), "a@x.com", view.Email)
	assert.Equal(suite.T(), models.RoleClient, view.Role)
	assert.Equal(suite.T(), models.PlanFree, view.Plan)
	assert.False(suite.T(), view.CreatedAt.IsZero())
}

func (suite *StoreTestSuite) TestCreateRejectsOverlongPassword() {
	_, err := suite.store.Create("long@x.com", strings.Repeat("p", 73), "", "")
	require.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, apperr.ErrValidationFailed)
	assert.Equal(suite.T(), "Password is too long", apperr.Message(err))

	count, err := suite.db.AccountCount()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, count)
}

func (suite *StoreTestSuite) TestCreateKeepsRoleAndPlan() {
	_, err := suite.store.Create("boss@x.com", "pw", models.RoleAdmin, models.PlanPremium)
	require.NoError(suite.T(), err)

	view, err := suite.store.Authenticate("boss@x.com", "pw")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleAdmin, view.Role)
	assert.Equal(suite.T(), models.PlanPremium, view.Plan)
}

func (suite *StoreTestSuite) TestCreateDuplicate() {
	id, err := suite.store.Create("a@x.com", "pw123", "", "")
	require.NoError(suite.T(), err)

	_, err = suite.store.Create("a@x.com", "other", models.RoleAdmin, models.PlanPremium)
	assert.ErrorIs(suite.T(), err, apperr.ErrDuplicateAccount)

	// Existing account is unmodified
	view, err := suite.store.Authenticate("a@x.com", "pw123")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, view.ID)
	assert.Equal(suite.T(), models.RoleClient, view.Role)

	_, err = suite.store.Authenticate("a@x.com", "other")
	assert.ErrorIs(suite.T(), err, apperr.ErrAuthenticationFailed)
}

func (suite *StoreTestSuite) TestCreateRequiresFields() {
	_, err := suite.store.Create("", "pw", "", "")
	assert.ErrorIs(suite.T(), err, apperr.ErrValidationFailed)
}

func (suite *StoreTestSuite) TestAuthenticateFailures() {
	_, err := suite.store.Create("a@x.com", "pw123", "", "")
	require.NoError(suite.T(), err)

	_, err = suite.store.Authenticate("a@x.com", "wrong")
	assert.ErrorIs(suite.T(), err, apperr.ErrAuthenticationFailed)

	_, err = suite.store.Authenticate("nobody@x.com", "pw123")
	assert.ErrorIs(suite.T(), err, apperr.ErrAuthenticationFailed)
}

func (suite *StoreTestSuite) TestSettingsDefaultsAndAPIKey() {
	id, err := suite.store.Create("a@x.com", "pw123", "", "")
	require.NoError(suite.T(), err)

	settings, err := suite.store.Settings(id)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), settings.EmailAlerts)
	assert.False(suite.T(), settings.LiveAccess)
	assert.Empty(suite.T(), settings.WebhookURL)
	assert.Regexp(suite.T(), regexp.MustCompile(`^fsk_[0-9a-f]{16}$`), settings.APIKey)

	require.NoError(suite.T(), suite.store.UpdateSettings(id, true, true, "https://hooks.example.com"))

	updated, err := suite.store.Settings(id)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), updated.EmailAlerts)
	assert.True(suite.T(), updated.LiveAccess)
	assert.Equal(suite.T(), "https://hooks.example.com", updated.WebhookURL)
	assert.Equal(suite.T(), settings.APIKey, updated.APIKey, "api key must not change")
}

func (suite *StoreTestSuite) TestSettingsFallbackForUnknownAccount() {
	settings, err := suite.store.Settings("missing")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AccountSettings{}, settings)
}

func (suite *StoreTestSuite) TestAccountByAPIKey() {
	id, err := suite.store.Create("a@x.com", "pw123", "", "")
	require.NoError(suite.T(), err)
	settings, err := suite.store.Settings(id)
	require.NoError(suite.T(), err)

	view, err := suite.store.AccountByAPIKey(settings.APIKey)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), id, view.ID)

	_, err = suite.store.AccountByAPIKey("")
	assert.ErrorIs(suite.T(), err, apperr.ErrAuthenticationFailed)
	_, err = suite.store.AccountByAPIKey("fsk_nope")
	assert.ErrorIs(suite.T(), err, apperr.ErrAuthenticationFailed)
}

func TestLiveAccess(t *testing.T) {
	free := models.AccountView{Plan: models.PlanFree}
	premium := models.AccountView{Plan: models.PlanPremium}

	assert.False(t, LiveAccess(free, models.AccountSettings{LiveAccess: true}))
	assert.False(t, LiveAccess(premium, models.AccountSettings{LiveAccess: false}))
	assert.True(t, LiveAccess(premium, models.AccountSettings{LiveAccess: true}))
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

// internal/services/user_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
)

type UserServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *UserService
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewUserService(suite.db)
}

func (suite *UserServiceTestSuite) TestCompleteOnboarding() {
	user := createUser(suite.T(), suite.db, "newcomer", "")

	onboarded, err := suite.service.CompleteOnboarding(user.ID, &OnboardingRequest{
		Role:        models.UserRoleSeller,
		ProfileData: map[string]interface{}{"company": "Acme Supply"},
	})
	suite.NoError(err)
	suite.Equal(models.UserRoleSeller, onboarded.Role)
	suite.NotNil(onboarded.OnboardedAt)
	suite.Equal("Acme Supply", onboarded.ProfileData["company"])
}

func (suite *UserServiceTestSuite) TestCompleteOnboarding_OnlyOnce() {
	user := createUser(suite.T(), suite.db, "newcomer", "")

	_, err := suite.service.CompleteOnboarding(user.ID, &OnboardingRequest{Role: models.UserRoleBuyer})
	suite.NoError(err)

	// The role is set exactly once; switching requires an admin.
	_, err = suite.service.CompleteOnboarding(user.ID, &OnboardingRequest{Role: models.UserRoleSeller})
	suite.ErrorIs(err, ErrAlreadyOnboarded)

	var persisted models.User
	suite.NoError(suite.db.First(&persisted, user.ID).Error)
	suite.Equal(models.UserRoleBuyer, persisted.Role)
}

func (suite *UserServiceTestSuite) TestCompleteOnboarding_RejectsAdminRole() {
	user := createUser(suite.T(), suite.db, "newcomer", "")

	_, err := suite.service.CompleteOnboarding(user.ID, &OnboardingRequest{Role: models.UserRoleAdmin})
	suite.ErrorIs(err, ErrValidation)
}

func (suite *UserServiceTestSuite) TestUpdateProfile_UsernameTaken() {
	createUser(suite.T(), suite.db, "taken", models.UserRoleBuyer)
	user := createUser(suite.T(), suite.db, "someone", models.UserRoleBuyer)

	_, err := suite.service.UpdateProfile(user.ID, &UpdateProfileRequest{Username: "taken"})
	suite.ErrorIs(err, ErrValidation)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

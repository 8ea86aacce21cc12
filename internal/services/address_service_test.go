// internal/services/address_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openreq/marketplace-backend/internal/models"
)

type AddressServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *AddressService
	user    *models.User
}

func (suite *AddressServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.service = NewAddressService(suite.db)
	suite.user = createUser(suite.T(), suite.db, "buyer", models.UserRoleBuyer)
}

func (suite *AddressServiceTestSuite) create(label string, isDefault bool) *models.Address {
	address, err := suite.service.CreateAddress(suite.user.ID, &AddressRequest{
		Label:     label,
		FullName:  "Pat Doe",
		City:      "Springfield",
		Line:      "12 Main St",
		IsDefault: isDefault,
	})
	suite.Require().NoError(err)
	return address
}

func (suite *AddressServiceTestSuite) defaultCount() int64 {
	var count int64
	suite.db.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", suite.user.ID, true).
		Count(&count)
	return count
}

func (suite *AddressServiceTestSuite) TestFirstAddressBecomesDefault() {
	address := suite.create("home", false)
	suite.True(address.IsDefault)
	suite.Equal(int64(1), suite.defaultCount())
}

func (suite *AddressServiceTestSuite) TestSingleDefaultInvariant() {
	first := suite.create("home", false)
	second := suite.create("office", true)

	suite.Equal(int64(1), suite.defaultCount())

	var reloaded models.Address
	suite.NoError(suite.db.First(&reloaded, first.ID).Error)
	suite.False(reloaded.IsDefault)

	// Flipping the default back also keeps exactly one.
	_, err := suite.service.SetDefaultAddress(suite.user.ID, first.ID)
	suite.NoError(err)
	suite.Equal(int64(1), suite.defaultCount())

	var reloadedSecond models.Address
	suite.NoError(suite.db.First(&reloadedSecond, second.ID).Error)
	suite.False(reloadedSecond.IsDefault)
}

func (suite *AddressServiceTestSuite) TestDeleteAddress_OtherUserForbidden() {
	address := suite.create("home", false)
	other := createUser(suite.T(), suite.db, "other", models.UserRoleBuyer)

	err := suite.service.DeleteAddress(other.ID, address.ID)
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *AddressServiceTestSuite) TestListAddresses_DefaultFirst() {
	suite.create("home", false)
	suite.create("office", true)

	addresses, err := suite.service.ListAddresses(suite.user.ID)
	suite.NoError(err)
	suite.Len(addresses, 2)
	suite.True(addresses[0].IsDefault)
	suite.Equal("office", addresses[0].Label)
}

func TestAddressServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AddressServiceTestSuite))
}

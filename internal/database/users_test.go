package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/authhub-io/authhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
}

func (s *StoreTestSuite) SetupTest() {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(s.T().TempDir(), "test.db")

	store, err := Open(cfg)
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreTestSuite) TearDownTest() {
	s.store.Close()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) TestCreateAndGetUser() {
	user, err := s.store.CreateUser("alice", "hashed-password")
	s.Require().NoError(err)
	s.Require().NotNil(user)
	assert.NotZero(s.T(), user.ID)
	assert.Equal(s.T(), "alice", user.Username)
	assert.Equal(s.T(), "hashed-password", user.Password)
	assert.False(s.T(), user.CreatedAt.IsZero())
	assert.Nil(s.T(), user.LastLogin)

	byName, err := s.store.GetUserByUsername("alice")
	s.Require().NoError(err)
	assert.Equal(s.T(), user.ID, byName.ID)

	byID, err := s.store.GetUserByID(user.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), "alice", byID.Username)
}

func (s *StoreTestSuite) TestDuplicateUsername() {
	_, err := s.store.CreateUser("bob", "hash-one")
	s.Require().NoError(err)

	_, err = s.store.CreateUser("bob", "hash-two")
	assert.ErrorIs(s.T(), err, ErrUsernameTaken)

	// The failed insert must not have left a second row.
	user, err := s.store.GetUserByUsername("bob")
	s.Require().NoError(err)
	assert.Equal(s.T(), "hash-one", user.Password)
}

func (s *StoreTestSuite) TestUsernameIsCaseSensitive() {
	_, err := s.store.CreateUser("carol", "hash")
	s.Require().NoError(err)

	_, err = s.store.GetUserByUsername("Carol")
	assert.ErrorIs(s.T(), err, ErrUserNotFound)
}

func (s *StoreTestSuite) TestGetMissingUser() {
	_, err := s.store.GetUserByUsername("nobody")
	assert.ErrorIs(s.T(), err, ErrUserNotFound)

	_, err = s.store.GetUserByID(9999)
	assert.ErrorIs(s.T(), err, ErrUserNotFound)
}

func (s *StoreTestSuite) TestUpdateLastLogin() {
	user, err := s.store.CreateUser("dave", "hash")
	s.Require().NoError(err)

	before := time.Now().UTC().Add(-time.Second)
	s.Require().NoError(s.store.UpdateLastLogin(user.ID))

	updated, err := s.store.GetUserByID(user.ID)
	s.Require().NoError(err)
	s.Require().NotNil(updated.LastLogin)
	assert.True(s.T(), updated.LastLogin.After(before))

	// Missing row is reported, not silently ignored.
	assert.ErrorIs(s.T(), s.store.UpdateLastLogin(9999), ErrUserNotFound)
}

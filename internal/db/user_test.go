package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/vehicle-rentals/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func userCollectionForTest(t *testing.T) (*MongoUserCollection, *mongo.Collection) {
	t.Helper()
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	collection := client.Database("test_rentals").Collection("users")
	collection.Drop(context.Background())
	return &MongoUserCollection{Collection: collection}, collection
}

func testUser() models.User {
	return models.User{
		Username:     "testuser",
		Email:        "test@example.com",
		PasswordHash: "hashedpassword",
		Role:         models.RoleAgent,
		FirstName:    "Test",
		LastName:     "User",
	}
}

func TestMongoUserCollection_InsertUser(t *testing.T) {
	userCollection, collection := userCollectionForTest(t)

	err := userCollection.InsertUser(context.Background(), testUser())
	assert.NoError(t, err)

	var foundUser models.User
	err = collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&foundUser)
	assert.NoError(t, err)
	assert.Equal(t, "testuser", foundUser.Username)
	assert.Equal(t, models.RoleAgent, foundUser.Role)
	assert.True(t, foundUser.IsActive)
	assert.NotZero(t, foundUser.CreatedAt)
	assert.NotZero(t, foundUser.UpdatedAt)
}

func TestMongoUserCollection_FindUserByID(t *testing.T) {
	userCollection, collection := userCollectionForTest(t)

	require.NoError(t, userCollection.InsertUser(context.Background(), testUser()))

	var insertedUser models.User
	require.NoError(t, collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser))

	foundUser, err := userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, "testuser", foundUser.Username)

	_, err = userCollection.FindUserByID(context.Background(), "invalid-id")
	assert.Error(t, err)
}

func TestMongoUserCollection_FindUserByUsernameAndEmail(t *testing.T) {
	userCollection, _ := userCollectionForTest(t)

	require.NoError(t, userCollection.InsertUser(context.Background(), testUser()))

	byUsername, err := userCollection.FindUserByUsername(context.Background(), "testuser")
	assert.NoError(t, err)
	assert.Equal(t, "test@example.com", byUsername.Email)

	_, err = userCollection.FindUserByUsername(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	byEmail, err := userCollection.FindUserByEmail(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "testuser", byEmail.Username)

	_, err = userCollection.FindUserByEmail(context.Background(), "nonexistent@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoUserCollection_UpdateUser(t *testing.T) {
	userCollection, collection := userCollectionForTest(t)

	require.NoError(t, userCollection.InsertUser(context.Background(), testUser()))

	var insertedUser models.User
	require.NoError(t, collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser))

	updatedUser := insertedUser
	updatedUser.FirstName = "Updated"
	updatedUser.LastName = "Name"

	err := userCollection.UpdateUser(context.Background(), insertedUser.ID.Hex(), updatedUser)
	assert.NoError(t, err)

	foundUser, err := userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, "Updated", foundUser.FirstName)
	assert.Equal(t, "Name", foundUser.LastName)
	assert.True(t, foundUser.UpdatedAt.After(insertedUser.UpdatedAt))
}

func TestMongoUserCollection_UpdateLastLogin(t *testing.T) {
	userCollection, collection := userCollectionForTest(t)

	require.NoError(t, userCollection.InsertUser(context.Background(), testUser()))

	var insertedUser models.User
	require.NoError(t, collection.FindOne(context.Background(), bson.M{"username": "testuser"}).Decode(&insertedUser))

	err := userCollection.UpdateLastLogin(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)

	updatedUser, err := userCollection.FindUserByID(context.Background(), insertedUser.ID.Hex())
	assert.NoError(t, err)
	require.NotNil(t, updatedUser.LastLogin)
	assert.True(t, updatedUser.LastLogin.After(insertedUser.CreatedAt))
}

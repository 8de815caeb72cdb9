package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
)

func TestFakeBackend_LoginAndCheck(t *testing.T) {
	f := NewFakeBackend()
	f.AddUser("alice", "pw", "tok-1", domainauth.Identity{Email: "alice@example.com", Role: domainauth.RoleAdmin})
	ctx := context.Background()

	token, err := f.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	_, err = f.Login(ctx, "alice", "nope")
	assert.True(t, apperrors.IsValidation(err))

	check, err := f.CheckToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, check.Status)
	assert.Equal(t, domainauth.RoleAdmin, check.Identity.Role)

	f.RevokeToken("tok-1")
	check, err = f.CheckToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, check.Status)

	assert.Equal(t, 2, f.Calls("Login"))
	assert.Equal(t, 2, f.Calls("CheckToken"))
}

func TestFakeBackend_Overrides(t *testing.T) {
	f := NewFakeBackend()
	f.FetchConfigFunc = func(context.Context) (ports.ConfigResponse, error) {
		return ports.ConfigResponse{Status: false, Message: "maintenance"}, nil
	}

	resp, err := f.FetchConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.Status)
	assert.Equal(t, "maintenance", resp.Message)
	assert.Equal(t, 1, f.Calls("FetchConfig"))
}

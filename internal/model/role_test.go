package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("admin")
	require.NoError(t, err)
	require.True(t, r.IsAdmin())

	r, err = ParseRole("user")
	require.NoError(t, err)
	require.False(t, r.IsAdmin())

	for _, bad := range []string{"", "Admin", "root", "true"} {
		_, err := ParseRole(bad)
		require.ErrorIs(t, err, ErrUnknownRole, bad)
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	b, err := json.Marshal(User{ID: "u1", Email: "a@b.c", PasswordHash: "$2a$12$secret", Role: RoleAdmin})
	require.NoError(t, err)
	require.NotContains(t, string(b), "password")
	require.Contains(t, string(b), `"role":"admin"`)
}

func TestMenuItemPriceIsJSONNumber(t *testing.T) {
	b, err := json.Marshal(MenuItem{Price: decimal.RequireFromString("12.50")})
	require.NoError(t, err)
	require.Contains(t, string(b), `"price":12.5`)
}

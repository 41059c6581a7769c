package service

import (
	"testing"

	"inventorypro/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFindUser_Policies(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	dir := NewUserDirectory([]model.User{
		{Name: "Laura", PIN: "4821", Password: string(hash), Role: model.RoleAdmin},
		{Name: "Tomas", PIN: "1357", Role: model.RoleCashier},
		{Name: "Ines", PIN: "2468", Password: "ines-register", Role: model.RoleCashier},
	})

	cases := []struct {
		name               string
		identifier, secret string
		role               model.Role
		wantUser           string
		wantPolicy         MatchPolicy
	}{
		{"pin only", "", "1357", "", "Tomas", MatchPIN},
		{"name and pin", "tomas", "1357", "", "Tomas", MatchPIN},
		{"pin twice", "2468", "2468", "", "Ines", MatchPIN},
		{"name and plain password", "Ines", "ines-register", "", "Ines", MatchNamePassword},
		{"name and bcrypt password", "LAURA", "s3cret", "", "Laura", MatchNamePassword},
		{"pin and password", "4821", "s3cret", "", "Laura", MatchPINPassword},
		{"role filter", "", "4821", model.RoleAdmin, "Laura", MatchPIN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u, policy, ok := dir.FindUser(tc.identifier, tc.secret, tc.role)
			require.True(t, ok)
			assert.Equal(t, tc.wantUser, u.Name)
			assert.Equal(t, tc.wantPolicy, policy)
		})
	}
}

func TestFindUser_Rejects(t *testing.T) {
	dir := NewUserDirectory(testUsers)

	for _, tc := range []struct{ identifier, secret string }{
		{"Tomas", ""},
		{"Tomas", "4821"},    // someone else's PIN under a name
		{"Laura", "$2a$10$"}, // not a hash match, not plain
		{"Nadie", "admin-pass"},
	} {
		_, _, ok := dir.FindUser(tc.identifier, tc.secret, "")
		assert.False(t, ok, "%q/%q", tc.identifier, tc.secret)
	}

	_, _, ok := dir.FindUser("", "4821", model.RoleCashier)
	assert.False(t, ok)
}

func TestUserDirectory_UsersIsACopy(t *testing.T) {
	dir := NewUserDirectory(testUsers)
	users := dir.Users()
	users[0].Name = "changed"
	assert.Equal(t, "Laura", dir.Users()[0].Name)
}

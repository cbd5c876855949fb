package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	userDomain "github.com/allisson/cedms/internal/user/domain"
)

func TestPrincipal_Actor(t *testing.T) {
	p := PrincipalFromUser(&userDomain.User{ID: "u-1", Username: "alice", Role: userDomain.RoleManager})

	actor := p.Actor()
	assert.Equal(t, "u-1", actor.UserID)
	assert.Equal(t, "alice", actor.Username)
	assert.Equal(t, "MANAGER", actor.Role)
}

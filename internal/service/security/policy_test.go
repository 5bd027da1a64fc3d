package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edumsg_server/internal/model"
)

func TestCanMessage(t *testing.T) {
	cases := []struct {
		roleA, roleB string
		want         bool
	}{
		{model.RoleStudent, model.RoleInstructor, true},
		{model.RoleInstructor, model.RoleStudent, true},
		{model.RoleAdmin, model.RoleStudent, true},
		{model.RoleAdmin, model.RoleInstructor, true},
		{model.RoleStudent, model.RoleAdmin, true},
		{model.RoleAdmin, model.RoleAdmin, true},
		{model.RoleStudent, model.RoleStudent, false},
		{model.RoleInstructor, model.RoleInstructor, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanMessage(tc.roleA, tc.roleB), "%s <-> %s", tc.roleA, tc.roleB)
	}
}

func TestCanAccessAttachment(t *testing.T) {
	conversation := &model.Conversation{
		ParticipantLowId:  "U001",
		ParticipantHighId: "U002",
	}
	assert.True(t, CanAccessAttachment("U001", conversation))
	assert.True(t, CanAccessAttachment("U002", conversation))
	assert.False(t, CanAccessAttachment("U003", conversation))
	assert.False(t, CanAccessAttachment("U001", nil))
}

package action

import (
	"testing"

	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/stretchr/testify/assert"
)

func TestAddDependency_DeduplicatesAndIgnoresSelf(t *testing.T) {
	self := actionid.ID{Module: "M", Kind: actionid.KindCall, Tag: "c"}
	a := &Action{ID: self}
	dep := actionid.ID{Module: "M", Kind: actionid.KindDeploy, Tag: "X"}

	a.AddDependency(dep)
	a.AddDependency(dep)
	a.AddDependency(self)

	assert.Equal(t, []actionid.ID{dep}, a.DependsOn)
}

func TestDescribe(t *testing.T) {
	deploy := &Action{
		ID:     actionid.ID{Module: "M", Kind: actionid.KindDeploy, Tag: "Lib"},
		Deploy: &artifact.Descriptor{Name: "Lib", Kind: artifact.KindLibrary},
	}
	assert.Equal(t, "deploy library Lib", deploy.Describe())
	assert.Equal(t, actionid.KindDeploy, deploy.Kind())

	grantor := actionid.ID{Module: "RoleStore", Tag: "RoleStore"}
	grantee := actionid.ID{Module: "Router", Tag: "Router"}
	grant := &Action{
		ID: actionid.ID{Module: "Router", Kind: actionid.KindCall, Tag: "grantRole1"},
		Call: &Call{
			Target:   grantor,
			Function: "grantRole",
			Grant:    &Grant{Grantor: grantor, Grantee: grantee, Role: "CONTROLLER"},
		},
	}
	assert.Equal(t, "grant CONTROLLER to Router#Router on RoleStore#RoleStore", grant.Describe())
}

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		from, to State
		ok       bool
	}{
		{Undiscovered, Pending, true},
		{Pending, InFlight, true},
		{Pending, Completed, true},
		{InFlight, Completed, true},
		{InFlight, Failed, true},
		{Completed, InFlight, false},
		{Completed, Failed, false},
		{Failed, InFlight, false},
		{Undiscovered, InFlight, false},
	}
	for _, tc := range testCases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to))
		})
	}
	assert.True(t, Completed.Terminal())
	assert.False(t, InFlight.Terminal())
}

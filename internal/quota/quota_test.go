package quota

import (
	"context"
	"errors"
	"testing"

	"workspace-platform/internal/rbac"
	"workspace-platform/internal/tenancy"

	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	limits tenancy.Limits
	counts map[tenancy.Dimension]int
	err    error
	locked []tenancy.Dimension
}

func (f *fakeReader) GetTenantLimits(context.Context, string) (tenancy.Limits, error) {
	return f.limits, f.err
}

func (f *fakeReader) CountByTenant(_ context.Context, _ string, dim tenancy.Dimension) (int, error) {
	return f.counts[dim], nil
}

func (f *fakeReader) LockQuota(_ context.Context, _ string, dim tenancy.Dimension) error {
	f.locked = append(f.locked, dim)
	return nil
}

func TestCheckQuota(t *testing.T) {
	e := NewEnforcer(nil, nil)
	r := &fakeReader{
		limits: tenancy.Limits{MaxUsers: 5, MaxProjects: 3},
		counts: map[tenancy.Dimension]int{tenancy.DimensionUsers: 4, tenancy.DimensionProjects: 3},
	}

	d, err := e.CheckQuota(context.Background(), r, "t", tenancy.DimensionUsers)
	require.NoError(t, err)
	require.Equal(t, rbac.Allow, d)

	d, err = e.CheckQuota(context.Background(), r, "t", tenancy.DimensionProjects)
	require.NoError(t, err)
	require.Equal(t, rbac.Deny(rbac.ReasonQuotaExceeded), d)
}

func TestCheckQuota_ZeroLimitDeniesEverything(t *testing.T) {
	e := NewEnforcer(nil, nil)
	r := &fakeReader{counts: map[tenancy.Dimension]int{}}

	d, err := e.CheckQuota(context.Background(), r, "t", tenancy.DimensionProjects)
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestCheckQuota_Errors(t *testing.T) {
	e := NewEnforcer(nil, nil)

	_, err := e.CheckQuota(context.Background(), &fakeReader{}, "t", tenancy.Dimension("tasks"))
	require.ErrorIs(t, err, ErrUnknownDimension)

	boom := errors.New("boom")
	_, err = e.CheckQuota(context.Background(), &fakeReader{err: boom}, "t", tenancy.DimensionUsers)
	require.ErrorIs(t, err, boom)
}

func TestReserveLocksBeforeCounting(t *testing.T) {
	e := NewEnforcer(nil, nil)
	r := &fakeReader{limits: tenancy.Limits{MaxUsers: 1}, counts: map[tenancy.Dimension]int{}}

	d, err := e.Reserve(context.Background(), r, "t", tenancy.DimensionUsers)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, []tenancy.Dimension{tenancy.DimensionUsers}, r.locked)
}

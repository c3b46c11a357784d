package plans_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam-studio/qalam/svc/plans"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := plans.NewCatalog(context.Background(), plans.NewYAMLSource(plans.DefaultCatalog))
	require.NoError(t, err)
	assert.Equal(t, []string{"free", "creator", "pro", "studio"}, c.Slugs())

	free := c.Free()
	assert.Equal(t, 1, free.RedoLimitPerTab)
	assert.Nil(t, free.PriceMonthly)

	studio, err := c.Get("studio")
	require.NoError(t, err)
	assert.Equal(t, plans.Unlimited, studio.ProjectsLimit)
	assert.True(t, studio.HasFeature(plans.FeaturePrioritySupport))
	require.NotNil(t, studio.Price(plans.PeriodYearly))
	assert.Equal(t, "799", studio.Price(plans.PeriodYearly).String())

	p, period, err := c.ResolveProviderPlan("P-PRO-YEARLY")
	require.NoError(t, err)
	assert.Equal(t, "pro", p.Slug)
	assert.Equal(t, plans.PeriodYearly, period)
}

func TestYAMLSource_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := plans.NewYAMLSource([]byte("plans: [")).Load(ctx)
	assert.Error(t, err)

	_, err = plans.NewYAMLSource([]byte("plans:\n  - slug: free\n    features: [teleport]\n")).Load(ctx)
	assert.ErrorIs(t, err, plans.ErrInvalidPlan)

	_, err = plans.NewYAMLSource([]byte("plans:\n  - slug: free\n    price_monthly: abc\n")).Load(ctx)
	assert.ErrorIs(t, err, plans.ErrInvalidPlan)
}

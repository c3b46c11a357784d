// Package plans holds the subscription plan catalog.
//
// A Catalog is loaded once from a Source (YAML seed, Postgres table or an
// in-memory map) and is immutable afterwards. It always contains the "free"
// plan, which is the fallback for users without an entitling subscription:
//
//	catalog, err := plans.NewCatalog(ctx, plans.NewYAMLSource(plans.DefaultCatalog),
//	    plans.WithSlugResolver(billing.EntitledPlanSlug(subscriptions)),
//	)
//	plan, err := catalog.ResolveEffectivePlan(ctx, userID)
//
// Payment providers refer to plans by their own price identifiers;
// ResolveProviderPlan maps those back to a Plan and billing period.
package plans

package plans

import (
	"context"
	_ "embed"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Source loads the plan set.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Plan, error)

func (f SourceFunc) Load(ctx context.Context) ([]Plan, error) { return f(ctx) }

type memorySource struct {
	plans []Plan
}

// NewMemorySource returns a Source over a copy of plans.
func NewMemorySource(plans ...Plan) Source {
	return &memorySource{plans: slices.Clone(plans)}
}

func (s *memorySource) Load(context.Context) ([]Plan, error) {
	return slices.Clone(s.plans), nil
}

// DefaultCatalog is the built-in tier table.
//
//go:embed catalog.yaml
var DefaultCatalog []byte

type yamlPlan struct {
	Slug            string   `yaml:"slug"`
	Name            string   `yaml:"name"`
	ProjectsLimit   *int64   `yaml:"projects_per_month"`
	TokensLimit     int64    `yaml:"tokens_per_month"`
	RedoLimitPerTab int      `yaml:"redo_limit_per_tab"`
	Features        []string `yaml:"features"`
	PriceMonthly    string   `yaml:"price_monthly"`
	PriceYearly     string   `yaml:"price_yearly"`
	MonthlyPriceID  string   `yaml:"monthly_price_id"`
	YearlyPriceID   string   `yaml:"yearly_price_id"`
}

type yamlSource struct {
	data []byte
}

// NewYAMLSource parses plans from a YAML document with a top-level "plans" list.
// A missing projects_per_month means unlimited.
func NewYAMLSource(data []byte) Source {
	return &yamlSource{data: data}
}

func (s *yamlSource) Load(context.Context) ([]Plan, error) {
	var doc struct {
		Plans []yamlPlan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(s.data, &doc); err != nil {
		return nil, fmt.Errorf("decode plans yaml: %w", err)
	}

	out := make([]Plan, 0, len(doc.Plans))
	for _, yp := range doc.Plans {
		p, err := yp.plan()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (yp yamlPlan) plan() (Plan, error) {
	p := Plan{
		Slug:            yp.Slug,
		Name:            yp.Name,
		ProjectsLimit:   Unlimited,
		TokensLimit:     yp.TokensLimit,
		RedoLimitPerTab: yp.RedoLimitPerTab,
		MonthlyPriceID:  yp.MonthlyPriceID,
		YearlyPriceID:   yp.YearlyPriceID,
	}
	if yp.ProjectsLimit != nil {
		p.ProjectsLimit = *yp.ProjectsLimit
	}

	for _, f := range yp.Features {
		switch Feature(f) {
		case FeatureExport:
			p.ExportEnabled = true
		case FeatureAPIAccess:
			p.APIAccess = true
		case FeaturePrioritySupport:
			p.PrioritySupport = true
		default:
			return Plan{}, fmt.Errorf("%w: %s: unknown feature %q", ErrInvalidPlan, yp.Slug, f)
		}
	}

	var err error
	if p.PriceMonthly, err = parsePrice(yp.PriceMonthly); err != nil {
		return Plan{}, fmt.Errorf("%w: %s: price_monthly: %v", ErrInvalidPlan, yp.Slug, err)
	}
	if p.PriceYearly, err = parsePrice(yp.PriceYearly); err != nil {
		return Plan{}, fmt.Errorf("%w: %s: price_yearly: %v", ErrInvalidPlan, yp.Slug, err)
	}
	return p, nil
}

func parsePrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

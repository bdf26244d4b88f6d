package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// RuleKind selects the arithmetic a proposal uses.
type RuleKind string

const (
	// Maintenance adds a 10% maintenance fee to the base total.
	Maintenance RuleKind = "maintenance"
	// DiscountTier quotes a full first term, a 10%-off second term, and a
	// 30/40/remainder payment schedule over both.
	DiscountTier RuleKind = "discount_tier"
	// FlatGST adds 18% GST to the base and splits the result 50/50.
	FlatGST RuleKind = "flat_gst"
)

const (
	maintenancePercent = 10
	secondTermPercent  = 90
	gstPercent         = 18
	advancePercent     = 50
)

var schedulePercents = []int64{30, 40}

var ErrInvalidRule = errors.New("pricing: invalid rule")

// Outputs names the placeholders (without <<>>) a rule writes. Empty names are
// skipped.
type Outputs struct {
	Base               string   `yaml:"base,omitempty" json:"base,omitempty"`
	Maintenance        string   `yaml:"maintenance,omitempty" json:"maintenance,omitempty"`
	Discounted         string   `yaml:"discounted,omitempty" json:"discounted,omitempty"`
	GST                string   `yaml:"gst,omitempty" json:"gst,omitempty"`
	Total              string   `yaml:"total,omitempty" json:"total,omitempty"`
	Advance            string   `yaml:"advance,omitempty" json:"advance,omitempty"`
	Balance            string   `yaml:"balance,omitempty" json:"balance,omitempty"`
	Payments           []string `yaml:"payments,omitempty" json:"payments,omitempty"`
	AdditionalFeatures []string `yaml:"additional_features,omitempty" json:"additional_features,omitempty"`
}

// RuleSpec is the configuration form of a pricing rule.
type RuleSpec struct {
	Kind RuleKind `yaml:"rule" json:"rule"`
	// BaseFields lists the pricing keys summed into the base. When empty every
	// pricing field not in ExcludeFields is summed.
	BaseFields    []string `yaml:"base_fields,omitempty" json:"base_fields,omitempty"`
	ExcludeFields []string `yaml:"exclude_fields,omitempty" json:"exclude_fields,omitempty"`
	// RenderZero renders zero-valued pricing fields as "<symbol>0" instead of "".
	RenderZero bool    `yaml:"render_zero,omitempty" json:"render_zero,omitempty"`
	Outputs    Outputs `yaml:"outputs" json:"outputs"`
}

// Quote is the result of applying a rule to one set of inputs.
type Quote struct {
	Currency           Currency          `json:"currency"`
	Base               int64             `json:"base"`
	Maintenance        int64             `json:"maintenance,omitempty"`
	Discounted         int64             `json:"discounted,omitempty"`
	GST                int64             `json:"gst,omitempty"`
	Total              int64             `json:"total"`
	Advance            int64             `json:"advance,omitempty"`
	Balance            int64             `json:"balance,omitempty"`
	Payments           []int64           `json:"payments,omitempty"`
	AdditionalFeatures int64             `json:"additional_features,omitempty"`
	Placeholders       map[string]string `json:"placeholders"`
}

// Rule maps raw amounts (keyed by pricing key) to a Quote. Rules are built
// once by Compile and are safe to share.
type Rule func(amounts map[string]int64, currency Currency) Quote

// Compile validates spec against the proposal's ordered pricing keys and
// returns the matching rule.
func Compile(spec RuleSpec, fields []string) (Rule, error) {
	base, err := baseFields(spec, fields)
	if err != nil {
		return nil, err
	}
	out := spec.Outputs
	render := fieldRenderer(fields, spec.RenderZero)

	switch spec.Kind {
	case Maintenance:
		return func(amounts map[string]int64, c Currency) Quote {
			q := Quote{Currency: c, Placeholders: render(amounts, c)}
			q.Base = sum(amounts, base)
			q.Maintenance = percent(q.Base, maintenancePercent)
			q.Total = q.Base + q.Maintenance
			set(q.Placeholders, out.Base, c.Format(q.Base))
			set(q.Placeholders, out.Maintenance, c.Format(q.Maintenance))
			set(q.Placeholders, out.Total, c.FormatTotal(q.Total))
			attachAdditionalFeatures(&q, out)
			return q
		}, nil

	case DiscountTier:
		if n := len(out.Payments); n != 0 && n != len(schedulePercents)+1 {
			return nil, fmt.Errorf("%w: discount_tier needs %d payment keys, got %d", ErrInvalidRule, len(schedulePercents)+1, n)
		}
		return func(amounts map[string]int64, c Currency) Quote {
			q := Quote{Currency: c, Placeholders: render(amounts, c)}
			q.Base = sum(amounts, base)
			q.Discounted = percent(q.Base, secondTermPercent)
			q.Total = q.Base + q.Discounted
			q.Payments = schedule(q.Total)
			set(q.Placeholders, out.Base, c.Format(q.Base))
			set(q.Placeholders, out.Discounted, c.Format(q.Discounted))
			set(q.Placeholders, out.Total, c.FormatTotal(q.Total))
			for i, key := range out.Payments {
				set(q.Placeholders, key, c.Format(q.Payments[i]))
			}
			attachAdditionalFeatures(&q, out)
			return q
		}, nil

	case FlatGST:
		return func(amounts map[string]int64, c Currency) Quote {
			q := Quote{Currency: c, Placeholders: render(amounts, c)}
			q.Base = sum(amounts, base)
			q.GST = percent(q.Base, gstPercent)
			q.Total = q.Base + q.GST
			q.Advance = percent(q.Total, advancePercent)
			q.Balance = q.Total - q.Advance
			set(q.Placeholders, out.Base, c.Format(q.Base))
			set(q.Placeholders, out.GST, c.Format(q.GST))
			set(q.Placeholders, out.Total, c.Format(q.Total))
			set(q.Placeholders, out.Advance, c.Format(q.Advance))
			set(q.Placeholders, out.Balance, c.Format(q.Balance))
			attachAdditionalFeatures(&q, out)
			return q
		}, nil

	case "":
		return nil, fmt.Errorf("%w: rule kind is required", ErrInvalidRule)
	default:
		return nil, fmt.Errorf("%w: unknown rule kind %q", ErrInvalidRule, spec.Kind)
	}
}

// schedule splits total into the fixed percentages plus a remainder, so the
// parts always add back up to total.
func schedule(total int64) []int64 {
	parts := make([]int64, 0, len(schedulePercents)+1)
	remainder := total
	for _, p := range schedulePercents {
		part := percent(total, p)
		parts = append(parts, part)
		remainder -= part
	}
	return append(parts, remainder)
}

func baseFields(spec RuleSpec, fields []string) ([]string, error) {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	for _, f := range append(append([]string{}, spec.BaseFields...), spec.ExcludeFields...) {
		if _, ok := known[f]; !ok {
			return nil, fmt.Errorf("%w: %q is not a pricing field", ErrInvalidRule, f)
		}
	}
	if len(spec.BaseFields) > 0 {
		return spec.BaseFields, nil
	}
	excluded := make(map[string]struct{}, len(spec.ExcludeFields))
	for _, f := range spec.ExcludeFields {
		excluded[f] = struct{}{}
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := excluded[f]; !skip {
			out = append(out, f)
		}
	}
	return out, nil
}

func fieldRenderer(fields []string, renderZero bool) func(map[string]int64, Currency) map[string]string {
	return func(amounts map[string]int64, c Currency) map[string]string {
		out := make(map[string]string, len(fields)+8)
		for _, f := range fields {
			v := amounts[f]
			switch {
			case v > 0, renderZero:
				out[placeholder(f)] = c.Format(v)
			default:
				out[placeholder(f)] = ""
			}
		}
		return out
	}
}

func attachAdditionalFeatures(q *Quote, out Outputs) {
	if len(out.AdditionalFeatures) == 0 {
		return
	}
	q.AdditionalFeatures = q.Currency.AdditionalFeatures()
	for _, key := range out.AdditionalFeatures {
		set(q.Placeholders, key, q.Currency.Format(q.AdditionalFeatures))
	}
}

func sum(amounts map[string]int64, keys []string) int64 {
	var total int64
	for _, k := range keys {
		total += amounts[k]
	}
	return total
}

func set(dst map[string]string, key, value string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	dst[placeholder(key)] = value
}

func placeholder(name string) string {
	return "<<" + name + ">>"
}

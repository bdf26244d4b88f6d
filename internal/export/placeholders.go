package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"proposalkit/internal/catalog"
	"proposalkit/internal/compose"
	"proposalkit/internal/pricing"
)

// DateLayout is how every date placeholder is rendered.
const DateLayout = "02-01-2006"

var inputDateLayouts = []string{"2006-01-02", DateLayout, time.RFC3339}

// minTools is how many tool placeholders are always emitted.
const minTools = 2

// IdentityPlaceholders fills the client and date tokens, including the
// title-cased aliases some templates use.
func IdentityPlaceholders(c Client, date time.Time) compose.Placeholders {
	d := date.Format(DateLayout)
	return compose.Placeholders{
		"<<client_name>>":    c.Name,
		"<<client_phone>>":   c.Phone,
		"<<client_phoneno>>": c.Phone,
		"<<client_email>>":   c.Email,
		"<<date>>":           d,
		"<<Country>>":        c.Country,
		"<<Client Name>>":    c.Name,
		"<<Client Email>>":   c.Email,
		"<<Client Number>>":  c.Phone,
		"<<Date>>":           d,
	}
}

// TeamPlaceholders emits every role of the schema; missing counts render "0".
func TeamPlaceholders(roles []catalog.Role, counts map[string]int) compose.Placeholders {
	out := make(compose.Placeholders, len(roles))
	for _, role := range roles {
		out[compose.Key(role.Key)] = strconv.Itoa(counts[role.Key])
	}
	return out
}

// SpecialPlaceholders renders the definition's special fields. Dates default
// to today. Amounts of zero are left out so that a value computed by the
// pricing rule under the same key stands.
func SpecialPlaceholders(fields []catalog.SpecialField, values map[string]string, currency pricing.Currency, today time.Time) (compose.Placeholders, error) {
	out := make(compose.Placeholders, len(fields))
	for _, f := range fields {
		raw := strings.TrimSpace(values[f.Name])
		switch f.Type {
		case catalog.FieldDate:
			d := today
			if raw != "" {
				parsed, err := ParseDate(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, f.Name, err)
				}
				d = parsed
			}
			out[f.Placeholder()] = d.Format(DateLayout)
		case catalog.FieldAmount:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %s must be a non-negative whole number", ErrInvalidRequest, f.Name)
			}
			if n > 0 {
				out[f.Placeholder()] = currency.Format(n)
			}
		default:
			out[f.Placeholder()] = raw
		}
	}
	return out, nil
}

// ToolPlaceholders fills <<T1>>, <<T2>>, ... Blank slots render "".
func ToolPlaceholders(tools []string) compose.Placeholders {
	n := len(tools)
	if n < minTools {
		n = minTools
	}
	out := make(compose.Placeholders, n)
	for i := 0; i < n; i++ {
		var v string
		if i < len(tools) {
			v = strings.TrimSpace(tools[i])
		}
		out[compose.Key("T"+strconv.Itoa(i+1))] = v
	}
	return out
}

// BuildPlaceholders merges identity, pricing, team, special and tool values in
// that order; later sources win on collision. date is the proposal date; blank
// special date fields default to today instead.
func BuildPlaceholders(def *catalog.Definition, req Request, quote pricing.Quote, date, today time.Time) (compose.Placeholders, error) {
	special, err := SpecialPlaceholders(def.SpecialFields, req.Special, quote.Currency, today)
	if err != nil {
		return nil, err
	}
	return compose.Merge(
		IdentityPlaceholders(req.Client, date),
		compose.Placeholders(quote.Placeholders),
		TeamPlaceholders(def.Team, req.Team),
		special,
		ToolPlaceholders(req.Tools),
	), nil
}

// Validate rejects negative amounts and head counts.
func (r Request) Validate() error {
	for k, v := range r.Prices {
		if v < 0 {
			return fmt.Errorf("%w: price %s is negative", ErrInvalidRequest, k)
		}
	}
	for k, v := range r.Team {
		if v < 0 {
			return fmt.Errorf("%w: team count %s is negative", ErrInvalidRequest, k)
		}
	}
	return nil
}

// ParseDate accepts 2006-01-02, 02-01-2006 or RFC 3339.
func ParseDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range inputDateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(raw))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

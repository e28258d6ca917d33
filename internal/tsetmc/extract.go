package tsetmc

import (
	"encoding/json"
	"strconv"
	"strings"

	"tsecli/internal/textutil"
)

// The upstream API varies key casing and naming across response variants.
// Each field is read through an ordered list of candidate keys, first
// present wins; the lists are plain data so they are easy to audit and
// extend.
var (
	staticDataKeys     = []string{"staticData", "StaticData"}
	relatedCompanyKeys = []string{"relatedCompany", "RelatedCompany"}
	instrumentKeys     = []string{"instrument", "Instrument"}

	typeKeys         = []string{"type", "Type"}
	codeKeys         = []string{"code", "Code"}
	industryNameKeys = []string{"name", "Name", "title", "Title", "lVal", "lval", "lTitle", "value", "Value"}

	companyIDKeys     = []string{"insCode", "InsCode", "i", "Id", "id"}
	companySymbolKeys = []string{"lVal18AFC", "lVal18", "symbol", "Symbol"}
	companyNameKeys   = []string{"lVal30", "lSoc30", "lVal30AFC", "name", "Name"}
)

// industrialGroupType tags taxonomy records that are industrial groups.
const industrialGroupType = "IndustrialGroup"

// ExtractIndustries maps a static-data response onto the Industry list:
// records tagged IndustrialGroup, numeric codes zero-padded to two digits,
// names normalized with a synthesized fallback, deduplicated by code with
// the first occurrence winning.
func ExtractIndustries(doc map[string]any) []Industry {
	items := listUnder(doc, staticDataKeys)

	industries := make([]Industry, 0, len(items))
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if typ, _ := firstKey(m, typeKeys); stringify(typ) != industrialGroupType {
			continue
		}

		codeVal, ok := firstKey(m, codeKeys)
		if !ok {
			continue
		}
		code := padNumericCode(strings.TrimSpace(stringify(codeVal)))

		var name string
		if nameVal, ok := firstKey(m, industryNameKeys); ok {
			name = textutil.Normalize(stringify(nameVal))
		} else {
			name = industrialGroupType + "_" + code
		}

		if seen[code] {
			continue
		}
		seen[code] = true
		industries = append(industries, Industry{Code: code, Name: name})
	}

	return industries
}

// ExtractCompanies maps a related-company response onto the Company list.
// Each row's instrument record may sit under a nested key or be the row
// itself; rows without an id or symbol are dropped, and the result is
// deduplicated by id with the first occurrence winning.
func ExtractCompanies(doc map[string]any) []Company {
	rows := listUnder(doc, relatedCompanyKeys)

	companies := make([]Company, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}

		instr := m
		if nested, ok := firstKey(m, instrumentKeys); ok {
			nm, ok := nested.(map[string]any)
			if !ok {
				continue
			}
			instr = nm
		}

		idVal, ok := firstKey(instr, companyIDKeys)
		if !ok {
			continue
		}
		symbolVal, ok := firstKey(instr, companySymbolKeys)
		if !ok {
			continue
		}

		id := strings.TrimSpace(stringify(idVal))
		symbol := textutil.Normalize(stringify(symbolVal))

		name := ""
		if nameVal, ok := firstKey(instr, companyNameKeys); ok {
			name = textutil.Normalize(stringify(nameVal))
		}

		if seen[id] {
			continue
		}
		seen[id] = true
		companies = append(companies, Company{ID: id, Symbol: symbol, Name: name})
	}

	return companies
}

// firstKey returns the value of the first candidate key present in m with a
// non-nil value.
func firstKey(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// listUnder returns the first non-empty list found under the candidate
// keys; an empty list under one key falls through to the next.
func listUnder(doc map[string]any, keys []string) []any {
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			if list, ok := v.([]any); ok && len(list) > 0 {
				return list
			}
		}
	}
	return nil
}

// stringify renders a decoded JSON scalar as a string. json.Number keeps
// its exact digits, so numeric instrument codes never pick up an exponent.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// padNumericCode zero-pads purely decimal codes to at least two digits and
// leaves everything else untouched.
func padNumericCode(code string) string {
	if code == "" || !isDigits(code) {
		return code
	}
	if len(code) < 2 {
		return strings.Repeat("0", 2-len(code)) + code
	}
	return code
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

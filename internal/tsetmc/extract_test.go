package tsetmc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode mirrors the client's JSON handling so fixtures carry json.Number
// values like real responses do.
func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc map[string]any
	require.NoError(t, dec.Decode(&doc))
	return doc
}

func TestExtractIndustries(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []Industry
	}{
		{
			name: "basic extraction with zero padding",
			raw: `{"staticData":[
				{"type":"IndustrialGroup","code":"1","name":"Chemicals"},
				{"type":"IndustrialGroup","code":"12","name":"Metals"}
			]}`,
			expected: []Industry{
				{Code: "01", Name: "Chemicals"},
				{Code: "12", Name: "Metals"},
			},
		},
		{
			name: "uppercase keys accepted",
			raw: `{"StaticData":[
				{"Type":"IndustrialGroup","Code":"34","Title":"Autos"}
			]}`,
			expected: []Industry{{Code: "34", Name: "Autos"}},
		},
		{
			name: "non industrial group records filtered",
			raw: `{"staticData":[
				{"type":"Board","code":"9","name":"Main"},
				{"type":"IndustrialGroup","code":"2","name":"Banking"}
			]}`,
			expected: []Industry{{Code: "02", Name: "Banking"}},
		},
		{
			name: "duplicate codes keep first occurrence",
			raw: `{"staticData":[
				{"type":"IndustrialGroup","code":"01","name":"First"},
				{"type":"IndustrialGroup","code":"01","name":"Second"},
				{"type":"IndustrialGroup","code":"02","name":"Other"}
			]}`,
			expected: []Industry{
				{Code: "01", Name: "First"},
				{Code: "02", Name: "Other"},
			},
		},
		{
			name: "non numeric code unchanged",
			raw: `{"staticData":[
				{"type":"IndustrialGroup","code":"X1","name":"Odd"}
			]}`,
			expected: []Industry{{Code: "X1", Name: "Odd"}},
		},
		{
			name: "numeric json code padded",
			raw: `{"staticData":[
				{"type":"IndustrialGroup","code":1,"name":"Chem"}
			]}`,
			expected: []Industry{{Code: "01", Name: "Chem"}},
		},
		{
			name: "missing code skips record",
			raw: `{"staticData":[
				{"type":"IndustrialGroup","name":"No Code"},
				{"type":"IndustrialGroup","code":"44","name":"Kept"}
			]}`,
			expected: []Industry{{Code: "44", Name: "Kept"}},
		},
		{
			name: "missing name synthesized",
			raw:  `{"staticData":[{"type":"IndustrialGroup","code":"7"}]}`,
			expected: []Industry{
				{Code: "07", Name: "IndustrialGroup_07"},
			},
		},
		{
			name: "name picked from alias chain",
			raw: `{"staticData":[
				{"type":"IndustrialGroup","code":"5","lVal":"از طریق lVal"}
			]}`,
			expected: []Industry{{Code: "05", Name: "از طریق lVal"}},
		},
		{
			name:     "empty list",
			raw:      `{"staticData":[]}`,
			expected: []Industry{},
		},
		{
			name:     "non mapping elements ignored",
			raw:      `{"staticData":["junk",42,null]}`,
			expected: []Industry{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIndustries(decode(t, tt.raw))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractIndustries_NormalizesNames(t *testing.T) {
	doc := decode(t, `{"staticData":[
		{"type":"IndustrialGroup","code":"1","name":"  Chemical \u200c Products  "}
	]}`)
	got := ExtractIndustries(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "Chemical Products", got[0].Name)
}

func TestExtractCompanies(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []Company
	}{
		{
			name: "nested instrument record",
			raw: `{"relatedCompany":[
				{"instrument":{"insCode":"7745","lVal18AFC":"FOLD","lVal30":"Folad Co"}}
			]}`,
			expected: []Company{{ID: "7745", Symbol: "FOLD", Name: "Folad Co"}},
		},
		{
			name: "flat row without instrument wrapper",
			raw: `{"RelatedCompany":[
				{"insCode":"100","symbol":"ABC","name":"Abc Co"}
			]}`,
			expected: []Company{{ID: "100", Symbol: "ABC", Name: "Abc Co"}},
		},
		{
			name: "duplicate ids keep first symbol",
			raw: `{"relatedCompany":[
				{"instrument":{"insCode":"1","lVal18AFC":"FIRST"}},
				{"instrument":{"insCode":"1","lVal18AFC":"SECOND"}},
				{"instrument":{"insCode":"2","lVal18AFC":"OTHER"}}
			]}`,
			expected: []Company{
				{ID: "1", Symbol: "FIRST", Name: ""},
				{ID: "2", Symbol: "OTHER", Name: ""},
			},
		},
		{
			name: "missing symbol skips row",
			raw: `{"relatedCompany":[
				{"instrument":{"insCode":"1"}},
				{"instrument":{"insCode":"2","symbol":"OK"}}
			]}`,
			expected: []Company{{ID: "2", Symbol: "OK", Name: ""}},
		},
		{
			name: "missing id skips row",
			raw: `{"relatedCompany":[
				{"instrument":{"lVal18AFC":"NOID"}}
			]}`,
			expected: []Company{},
		},
		{
			name: "numeric instrument code keeps exact digits",
			raw: `{"relatedCompany":[
				{"instrument":{"insCode":778253364357513,"lVal18AFC":"BIG"}}
			]}`,
			expected: []Company{{ID: "778253364357513", Symbol: "BIG", Name: ""}},
		},
		{
			name: "id alias chain",
			raw: `{"relatedCompany":[
				{"instrument":{"i":"9","Symbol":"ALIAS","Name":"Alias Co"}}
			]}`,
			expected: []Company{{ID: "9", Symbol: "ALIAS", Name: "Alias Co"}},
		},
		{
			name: "instrument key with non mapping value skips row",
			raw: `{"relatedCompany":[
				{"instrument":"bogus","insCode":"3","symbol":"X"}
			]}`,
			expected: []Company{},
		},
		{
			name:     "empty list",
			raw:      `{"relatedCompany":[]}`,
			expected: []Company{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCompanies(decode(t, tt.raw))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractCompanies_NormalizesText(t *testing.T) {
	doc := decode(t, `{"relatedCompany":[
		{"instrument":{"insCode":"5","lVal18AFC":" فولاد\u200cمبارکه ","lVal30":"  Folad   Co "}}
	]}`)
	got := ExtractCompanies(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "فولاد مبارکه", got[0].Symbol)
	assert.Equal(t, "Folad Co", got[0].Name)
}

func TestListUnder_EmptyFirstKeyFallsThrough(t *testing.T) {
	doc := decode(t, `{"staticData":[],"StaticData":[
		{"type":"IndustrialGroup","code":"3","name":"Fallback"}
	]}`)
	got := ExtractIndustries(doc)
	require.Len(t, got, 1)
	assert.Equal(t, "03", got[0].Code)
}

func TestFirstKey(t *testing.T) {
	m := map[string]any{"b": "second", "c": nil, "a": "first"}

	v, ok := firstKey(m, []string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = firstKey(m, []string{"c", "b"})
	assert.True(t, ok)
	assert.Equal(t, "second", v, "nil values are treated as absent")

	_, ok = firstKey(m, []string{"missing"})
	assert.False(t, ok)
}

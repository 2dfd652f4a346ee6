// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"
	"strings"
)

// candidateFields is the shared SELECT clause and optional attribute block
// for all tier queries. The optional attributes feed confidence scoring.
const candidateFields = `
  OPTIONAL { ?entity schema:description ?description . FILTER(LANG(?description) = "en") }
  OPTIONAL { ?entity wdt:P27 ?countryEntity . }
  OPTIONAL { ?entity wdt:P18 ?image . }
  OPTIONAL { ?entity wdt:P569 ?birthDate . BIND(YEAR(?birthDate) AS ?birthYear) }
  OPTIONAL { ?entity wdt:P570 ?deathDate . BIND(YEAR(?deathDate) AS ?deathYear) }
  SERVICE wikibase:label {
    bd:serviceParam wikibase:language "en" .
    ?entity rdfs:label ?entityLabel .
    ?countryEntity rdfs:label ?country .
  }`

const selectClause = `SELECT ?entity ?entityLabel ?description ?country ?image ?birthYear ?deathYear
WHERE {`

// exactQuery matches humans whose English label equals name.
func exactQuery(name string, limit int) string {
	return fmt.Sprintf(`%s
  ?entity wdt:P31 wd:Q5 .
  ?entity rdfs:label ?name .
  FILTER(?name = "%s"@en)
%s
}
LIMIT %d`, selectClause, escape(name), candidateFields, limit)
}

// fuzzyQuery matches musicians whose label matches a "first.*last" pattern
// built from the input's first and last words.
func fuzzyQuery(name string, limit int) string {
	return fmt.Sprintf(`%s
  ?entity wdt:P31 wd:Q5 .
  ?entity wdt:P106 wd:Q639669 .
  ?entity rdfs:label ?name .
  FILTER(REGEX(?name, "%s", "i"))
%s
}
LIMIT %d`, selectClause, fuzzyPattern(name), candidateFields, limit)
}

// containsQuery matches musicians whose label contains name, case-insensitive.
func containsQuery(name string, limit int) string {
	return fmt.Sprintf(`%s
  ?entity wdt:P31 wd:Q5 .
  ?entity wdt:P106 wd:Q639669 .
  ?entity rdfs:label ?name .
  FILTER(CONTAINS(LCASE(?name), LCASE("%s")))
%s
}
LIMIT %d`, selectClause, escape(name), candidateFields, limit)
}

// attributeQuery matches musicians through an attribute rather than their
// own label: the genre (P136) or country (P27) label contains the text, or
// for era, the work period start year (P2031) falls in the named decade.
func attributeQuery(searchType SearchType, text string, limit int) string {
	var clause string
	switch searchType {
	case TypeGenre:
		clause = fmt.Sprintf(`  ?entity wdt:P136 ?genre .
  ?genre rdfs:label ?genreLabel .
  FILTER(LANG(?genreLabel) = "en")
  FILTER(CONTAINS(LCASE(?genreLabel), LCASE("%s")))`, escape(text))
	case TypeCountry:
		clause = fmt.Sprintf(`  ?entity wdt:P27 ?countryEntity .
  ?countryEntity rdfs:label ?countryLabel .
  FILTER(LANG(?countryLabel) = "en")
  FILTER(CONTAINS(LCASE(?countryLabel), LCASE("%s")))`, escape(text))
	case TypeEra:
		clause = fmt.Sprintf(`  ?entity wdt:P2031 ?start .
  FILTER(CONTAINS(STR(YEAR(?start)), "%s"))`, escape(eraDigits(text)))
	}

	return fmt.Sprintf(`%s
  ?entity wdt:P31 wd:Q5 .
  ?entity wdt:P106 wd:Q639669 .
%s
%s
}
LIMIT %d`, selectClause, clause, candidateFields, limit)
}

// fuzzyPattern builds the "first-word.*last-word" wildcard pattern; a
// single-word input is used verbatim.
func fuzzyPattern(name string) string {
	words := strings.Fields(name)
	if len(words) >= 2 {
		return escape(words[0]) + ".*" + escape(words[len(words)-1])
	}
	return escape(name)
}

// eraDigits keeps the leading digits of an era expression ("1970s" → "197").
func eraDigits(text string) string {
	digits := strings.TrimRight(strings.TrimSpace(text), "s")
	var b strings.Builder
	for _, r := range digits {
		if r < '0' || r > '9' {
			break
		}
		b.WriteRune(r)
	}
	// A decade constrains the first three digits of the year.
	s := b.String()
	if len(s) == 4 {
		s = s[:3]
	}
	return s
}

// escape neutralizes quote and backslash characters in user input embedded
// into SPARQL string literals.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// sparqlValue is one cell of a SPARQL JSON result binding.
type sparqlValue struct {
	Value string `json:"value"`
}

// sparqlResponse is the envelope of the SPARQL JSON results format.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

// entityID extracts the trailing identifier from an entity URI
// ("http://www.wikidata.org/entity/Q5383" → "Q5383").
func entityID(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

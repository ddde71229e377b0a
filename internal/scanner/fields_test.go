package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"01/02/1970":         "1970-02-01",
		"1.2.1970":           "1970-02-01",
		"3-11-2001":          "2001-11-03",
		"1 febbraio 1970":    "1970-02-01",
		"12 Dicembre 1999":   "1999-12-12",
		"il 31/13/1970":      "",
		"nessuna data":       "",
		"nato il 5 mag 1981": "1981-05-05",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, NormalizeDate(in))
		})
	}
}

func TestExtractFields(t *testing.T) {
	clause := " Roma il 1 febbraio 1970, C.F. RSSMRA70B01H501U, residente in Via Appia 10, 00179 Roma (RM), tel. 06 1234567, email mario.rossi@example.it"

	f := ExtractFields(clause)

	assert.Equal(t, "Roma", f.PlaceOfBirth)
	assert.Equal(t, "1970-02-01", f.DOB)
	assert.Equal(t, "RSSMRA70B01H501U", f.TaxCode)
	assert.Equal(t, "Via Appia 10", f.Address)
	assert.Equal(t, "00179", f.PostalCode)
	assert.Equal(t, "Roma", f.City)
	assert.Equal(t, "RM", f.Province)
	assert.Equal(t, "06 1234567", f.Phone)
	assert.Equal(t, "mario.rossi@example.it", f.Email)
}

func TestHarvestClause_ResidenceAndDomicile(t *testing.T) {
	h := harvestClause("residente in Via Po 3, 10124 Torino, domiciliato in Corso Francia 1", false)

	assert.Equal(t, "Via Po 3, 10124 Torino", h.residence)
	assert.Equal(t, "Corso Francia 1", h.domicile)
	assert.Equal(t, "Torino", h.fields.City)
	assert.Empty(t, h.fields.DOB)
	assert.Empty(t, h.fields.PlaceOfBirth)
}

func TestClauseAfter_StopsAtNextBirthAnchor(t *testing.T) {
	text := "Mario Rossi nato a Roma il 01/02/1970, Luigi Verdi nato a Napoli il 03/04/1975"
	from := len("Mario Rossi nato a")

	clause := clauseAfter(text, from)

	assert.Equal(t, " Roma il 01/02/1970, Luigi Verdi ", clause)
	assert.Equal(t, "1970-02-01", harvestClause(clause, true).fields.DOB)
}

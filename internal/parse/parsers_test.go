package parse

import "testing"

const philSysText = "REPUBLIC OF THE PHILIPPINES\nPHILSYS\nApelyido\nDELA CRUZ\nMga Pangalan\nJUAN PEDRO\nPetsa ng Kapanganakan\nJanuary 3, 1999\n1234-5678-9012-3456"

func TestParseNationalID(t *testing.T) {
	info := Parse("National ID", philSysText)

	if info.IDType != "National ID" {
		t.Errorf("IDType = %q, want National ID", info.IDType)
	}
	// Name order is given + middle + last; middle is absent here.
	if info.FullName != "JUAN PEDRO DELA CRUZ" {
		t.Errorf("FullName = %q, want JUAN PEDRO DELA CRUZ", info.FullName)
	}
	if info.DOB != "1999-01-03" {
		t.Errorf("DOB = %q, want 1999-01-03", info.DOB)
	}
	if info.IDNumber != "1234-5678-9012-3456" {
		t.Errorf("IDNumber = %q, want 1234-5678-9012-3456", info.IDNumber)
	}

	if info.Confidence.FullName < 0.8 || info.Confidence.IDNumber < 0.8 || info.Confidence.DOB < 0.8 {
		t.Errorf("present fields should carry high confidence, got %+v", info.Confidence)
	}
}

func TestParseNationalIDWithMiddleName(t *testing.T) {
	text := "PHILSYS\nApelyido\nDELA CRUZ\nMga Pangalan\nJUAN\nGitnang Apelyido\nSANTOS\nPetsa ng Kapanganakan\nJanuary 3, 1999"
	info := Parse("National ID", text)

	if info.FullName != "JUAN SANTOS DELA CRUZ" {
		t.Errorf("FullName = %q, want JUAN SANTOS DELA CRUZ", info.FullName)
	}
}

func TestParseUMID(t *testing.T) {
	text := "UNIFIED MULTI-PURPOSE ID\nSURNAME\nSANTOS\nGIVEN NAME\nMARIA\nMIDDLE NAME\nREYES\nCRN-1234-5678901-2"
	info := Parse("UMID", text)

	if info.FullName != "MARIA REYES SANTOS" {
		t.Errorf("FullName = %q, want MARIA REYES SANTOS", info.FullName)
	}
	if info.IDNumber != "CRN-1234-5678901-2" {
		t.Errorf("IDNumber = %q, want CRN-1234-5678901-2", info.IDNumber)
	}
}

func TestParseDriversLicense(t *testing.T) {
	text := "LAND TRANSPORTATION OFFICE\nDRIVER'S LICENSE\nDELA CRUZ, JUAN PEDRO\nN03-12-123456\n01/03/1999"
	info := Parse("Driver's License", text)

	if info.FullName != "DELA CRUZ JUAN PEDRO" {
		t.Errorf("FullName = %q, want DELA CRUZ JUAN PEDRO", info.FullName)
	}
	if info.IDNumber != "N03-12-123456" {
		t.Errorf("IDNumber = %q, want N03-12-123456", info.IDNumber)
	}
	if info.DOB != "1999-01-03" {
		t.Errorf("DOB = %q, want 1999-01-03", info.DOB)
	}
}

func TestParsePhilHealth(t *testing.T) {
	text := "PHILHEALTH\nMARIA REYES SANTOS\n12-345678901-2\nMarch 9, 1990"
	info := Parse("PhilHealth ID", text)

	if info.FullName != "MARIA REYES SANTOS" {
		t.Errorf("FullName = %q, want MARIA REYES SANTOS", info.FullName)
	}
	if info.IDNumber != "12-345678901-2" {
		t.Errorf("IDNumber = %q, want 12-345678901-2", info.IDNumber)
	}
	if info.DOB != "1990-03-09" {
		t.Errorf("DOB = %q, want 1990-03-09", info.DOB)
	}
}

func TestParseSSS(t *testing.T) {
	text := "SSS\nJUAN DELA CRUZ\n12-3456789-0"
	info := Parse("SSS ID", text)

	if info.FullName != "JUAN DELA CRUZ" {
		t.Errorf("FullName = %q, want JUAN DELA CRUZ", info.FullName)
	}
	if info.IDNumber != "12-3456789-0" {
		t.Errorf("IDNumber = %q, want 12-3456789-0", info.IDNumber)
	}
}

func TestParseGenericFallback(t *testing.T) {
	text := "SOME COMPANY BADGE\nMARIA SANTOS\nEMP 2021-00457\nJune 1, 2021"
	info := Parse("Other", text)

	if info.FullName == "" {
		t.Error("generic parser should find a name candidate")
	}
	if info.IDNumber != "2021-00457" {
		t.Errorf("IDNumber = %q, want 2021-00457", info.IDNumber)
	}
	if info.DOB != "2021-06-01" {
		t.Errorf("DOB = %q, want 2021-06-01", info.DOB)
	}
}

func TestParseEmptyText(t *testing.T) {
	info := Parse("National ID", "")

	if info.FullName != "" || info.DOB != "" || info.IDNumber != "" {
		t.Errorf("empty text should yield empty fields, got %+v", info)
	}
	if info.Confidence.FullName > 0.5 {
		t.Errorf("absent fields should carry low confidence, got %+v", info.Confidence)
	}
}

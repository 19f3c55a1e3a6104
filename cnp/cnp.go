// Package cnp validates Romanian personal numeric codes (CNP) and derives
// the identity attributes encoded in them.
//
// A CNP is 13 digits: S YY MM DD JJ NNN C, where S encodes gender and
// century, JJ is the issuing county and C is a mod-11 check digit computed
// against a fixed control constant. Checksum validation gates every
// downstream decision about whether a scanned digit run is a real identifier,
// so false positives from noisy OCR text are rejected here.
package cnp

import (
	"fmt"
	"time"
)

const controlKey = "279146358279"

// Gender values use the Romanian labels the documents carry.
type Gender string

const (
	Male   Gender = "Masculin"
	Female Gender = "Feminin"
)

// countyCodes maps the JJ digits to county names: 41 counties, the six
// Bucharest sectors and the two codes added for Călărași and Giurgiu.
var countyCodes = map[string]string{
	"01": "Alba", "02": "Arad", "03": "Argeș", "04": "Bacău",
	"05": "Bihor", "06": "Bistrița-Năsăud", "07": "Botoșani",
	"08": "Brașov", "09": "Brăila", "10": "Buzău",
	"11": "Caraș-Severin", "12": "Cluj", "13": "Constanța",
	"14": "Covasna", "15": "Dâmbovița", "16": "Dolj",
	"17": "Galați", "18": "Gorj", "19": "Harghita",
	"20": "Hunedoara", "21": "Ialomița", "22": "Iași",
	"23": "Ilfov", "24": "Maramureș", "25": "Mehedinți",
	"26": "Mureș", "27": "Neamț", "28": "Olt",
	"29": "Prahova", "30": "Satu Mare", "31": "Sălaj",
	"32": "Sibiu", "33": "Suceava", "34": "Teleorman",
	"35": "Timiș", "36": "Tulcea", "37": "Vaslui",
	"38": "Vâlcea", "39": "Vrancea", "40": "București",
	"41": "București S1", "42": "București S2", "43": "București S3",
	"44": "București S4", "45": "București S5", "46": "București S6",
	"51": "Călărași", "52": "Giurgiu",
}

// Info holds the attributes derived from a validated code.
type Info struct {
	Gender      Gender
	DateOfBirth time.Time
	Age         int
	County      string
	IsValid     bool
}

// DateOfBirthString formats the birth date the way it is printed on the
// document (dd.mm.yyyy).
func (i *Info) DateOfBirthString() string {
	return i.DateOfBirth.Format("02.01.2006")
}

// Validate reports whether code is a structurally valid CNP with a correct
// check digit. It never panics; any input that is not exactly 13 ASCII
// digits fails.
func Validate(code string) bool {
	if len(code) != 13 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	genderCode := int(code[0] - '0')
	if genderCode < 1 || genderCode > 8 {
		return false
	}

	month := twoDigits(code, 3)
	if month < 1 || month > 12 {
		return false
	}

	// Range check only; the source data does not carry enough context for
	// calendar-aware day validation.
	day := twoDigits(code, 5)
	if day < 1 || day > 31 {
		return false
	}

	if _, ok := countyCodes[code[7:9]]; !ok {
		return false
	}

	sum := 0
	for i := 0; i < 12; i++ {
		sum += int(code[i]-'0') * int(controlKey[i]-'0')
	}
	control := sum % 11
	if control == 10 {
		control = 1
	}

	return control == int(code[12]-'0')
}

// ExtractInfo derives gender, birth date, age and county from a code.
// It returns nil whenever Validate would return false.
func ExtractInfo(code string) *Info {
	return extractInfoAt(code, time.Now())
}

func extractInfoAt(code string, now time.Time) *Info {
	if !Validate(code) {
		return nil
	}

	genderCode := int(code[0] - '0')
	year := twoDigits(code, 1)
	month := twoDigits(code, 3)
	day := twoDigits(code, 5)

	var fullYear int
	switch genderCode {
	case 1, 2:
		fullYear = 1900 + year
	case 3, 4:
		fullYear = 1800 + year
	case 5, 6, 7, 8:
		// 7 and 8 are resident codes, also in the 2000s.
		fullYear = 2000 + year
	default:
		return nil
	}

	gender := Female
	if genderCode%2 == 1 {
		gender = Male
	}

	birthDate := time.Date(fullYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	age := now.Year() - birthDate.Year()
	if now.Month() < birthDate.Month() ||
		(now.Month() == birthDate.Month() && now.Day() < birthDate.Day()) {
		age--
	}

	return &Info{
		Gender:      gender,
		DateOfBirth: birthDate,
		Age:         age,
		County:      countyCodes[code[7:9]],
		IsValid:     true,
	}
}

// CountyName resolves a two-digit county code, for callers that only have
// the raw digits.
func CountyName(code string) (string, error) {
	name, ok := countyCodes[code]
	if !ok {
		return "", fmt.Errorf("unknown county code: %s", code)
	}
	return name, nil
}

func twoDigits(code string, offset int) int {
	return int(code[offset]-'0')*10 + int(code[offset+1]-'0')
}

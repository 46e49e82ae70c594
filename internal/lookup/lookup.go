// Package lookup holds the static tables used to annotate extracted fields:
// department names and codes, and means-of-financing (fund source) codes.
package lookup

import "strings"

var departmentCodes = map[string]string{
	"Department of Agriculture (DOA)":                                   "AGR",
	"Department of Accounting and General Services (DAGS)":              "AGS",
	"Department of the Attorney General (AG)":                           "ATG",
	"Department of Business, Economic Development, and Tourism (DBEDT)": "BED",
	"Department of Budget and Finance (B&F)":                            "BUF",
	"Department of Commerce and Consumer Affairs (DCCA)":                "CCA",
	"Department of Defense (DOD)":                                       "DEF",
	"Department of Education (DOE)":                                     "EDN",
	"Office of the Governor":                                            "GOV",
	"Department of Hawaiian Home Lands (DHHL)":                          "HHL",
	"Department of Human Services (DHS)":                                "HMS",
	"Department of Human Resources Development (DHRD)":                  "HRD",
	"Department of Health (DOH)":                                        "HTH",
	"Judiciary":                                                         "JUD",
	"Department of Labor and Industrial Relations (DLIR)":               "LBR",
	"Department of Land and Natural Resources (DLNR)":                   "LNR",
	"Office of the Lieutenant Governor (LG)":                            "LTG",
	"Department of Public Safety (DPS)":                                 "PSD",
	"Subsidies":                                                         "SUB",
	"Department of Taxation (DOTAX)":                                    "TAX",
	"Department of Transportation (DOT)":                                "TRN",
	"University of Hawaii (UH)":                                         "UOH",
	"City and County of Honolulu":                                       "CCH",
	"County of Hawaii":                                                  "COH",
	"County of Kauai":                                                   "COK",
	"County of Maui":                                                    "COM",
}

var departmentNames = invert(departmentCodes)

var fundSources = map[string]string{
	"A": "general funds",
	"B": "special funds",
	"C": "general obligation bond fund",
	"D": "general obligation bond fund with debt service cost to be paid from special funds",
	"E": "revenue bond funds",
	"J": "federal aid interstate funds",
	"K": "federal aid primary funds",
	"L": "federal aid secondary funds",
	"M": "federal aid urban funds",
	"N": "federal funds",
	"P": "other federal funds",
	"R": "private contributions",
	"S": "county funds",
	"T": "trust funds",
	"U": "interdepartmental transfers",
	"W": "revolving funds",
	"X": "other funds",
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// DepartmentName returns the long name for a three-letter department code.
func DepartmentName(code string) (string, bool) {
	name, ok := departmentNames[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// DepartmentCode returns the three-letter code for a department's long name.
func DepartmentCode(name string) (string, bool) {
	code, ok := departmentCodes[strings.TrimSpace(name)]
	return code, ok
}

// FundSource returns the description of a means-of-financing code.
func FundSource(code string) (string, bool) {
	desc, ok := fundSources[strings.ToUpper(strings.TrimSpace(code))]
	return desc, ok
}

// FundSourceOrEmpty is FundSource without the presence flag.
func FundSourceOrEmpty(code string) string {
	desc, _ := FundSource(code)
	return desc
}

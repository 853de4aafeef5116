// Package catalog contiene el catálogo de códigos de actividad (šifra delatnosti)
// que el banco acepta al registrar una empresa.
package catalog

import (
	"sort"
	"strconv"
	"strings"
)

// ActivityCode entrada del catálogo.
type ActivityCode struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// activityCodes catálogo cerrado. El servicio bancario recibe el código como string ("bas").
var activityCodes = map[string]string{
	"1.11":  "Cultivation of cereals and legumes",
	"1.13":  "Vegetable growing",
	"13.1":  "Preparation and spinning of textile fibers",
	"24.1":  "Manufacture of iron and steel",
	"24.2":  "Production of steel pipes and fittings",
	"41.1":  "Construction project development",
	"41.2":  "Construction of buildings",
	"42.11": "Road and highway construction",
	"42.12": "Railroad and subway construction",
	"42.13": "Bridge and tunnel construction",
	"42.21": "Construction of utility projects for fluids",
	"42.22": "Construction of utility projects for electricity and telecommunications",
	"5.1":   "Mining of hard coal",
	"7.1":   "Mining of iron ores",
	"7.21":  "Mining of uranium and thorium ores",
	"8.11":  "Quarrying of ornamental and building stone",
	"8.92":  "Extraction of peat",
	"47.11": "Retail sale in non-specialized stores",
	"56.1":  "Restaurants and mobile food service activities",
	"62.01": "Computer programming activities",
	"62.09": "Other information technology and computer service activities",
	"63.11": "Data processing, hosting and related activities",
	"64.19": "Other monetary intermediation",
	"64.91": "Financial leasing",
	"64.2":  "Activities of holding companies",
	"66.3":  "Fund management activities",
	"65.2":  "Reinsurance",
	"65.11": "Life insurance",
	"65.12": "Non-life insurance",
	"66.21": "Risk and damage evaluation",
	"68.1":  "Buying and selling of own real estate",
	"68.2":  "Renting and operating of own or leased real estate",
	"53.1":  "Postal activities under universal service obligation",
	"53.2":  "Other postal and courier activities",
	"85.1":  "Pre-primary education",
	"85.2":  "Primary education",
	"86.1":  "Hospital activities",
	"86.21": "General medical practice activities",
	"86.22": "Specialist medical practice activities",
	"86.9":  "Other human health activities",
	"84.12": "Regulation of the activities of providing health care, education, cultural services and other social services",
	"90.01": "Performing arts",
	"90.02": "Support activities to performing arts",
	"90.04": "Operation of arts facilities",
	"93.11": "Operation of sports facilities",
	"93.13": "Fitness facilities",
	"93.19": "Other sports activities",
	"26.11": "Manufacture of electronic components",
	"27.12": "Manufacture of electricity distribution and control apparatus",
	"29.1":  "Manufacture of motor vehicles",
}

// Normalize lleva un código a su forma canónica del catálogo.
// El formulario envía los códigos como número, así que "62.010" o "062.01" llegan distintos.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	f, err := strconv.ParseFloat(code, 64)
	if err != nil {
		return code
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsValidActivityCode indica si el código (normalizado) pertenece al catálogo.
func IsValidActivityCode(code string) bool {
	_, ok := activityCodes[Normalize(code)]
	return ok
}

// Label devuelve la descripción del código, o "" si no existe.
func Label(code string) string {
	return activityCodes[Normalize(code)]
}

// ActivityCodes devuelve el catálogo completo ordenado numéricamente.
func ActivityCodes() []ActivityCode {
	out := make([]ActivityCode, 0, len(activityCodes))
	for code, label := range activityCodes {
		out = append(out, ActivityCode{Code: code, Label: label})
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseFloat(out[i].Code, 64)
		b, _ := strconv.ParseFloat(out[j].Code, 64)
		return a < b
	})
	return out
}

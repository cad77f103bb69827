package datasets

// oecdMembers is matched as substrings against country names, so "United States" also
// keeps "United States Virgin Islands" (relabelled afterwards)
var oecdMembers = []string{
	"Australia", "Austria", "Belgium", "Canada", "Chile", "Colombia", "Costa Rica",
	"Czech Republic", "Denmark", "Estonia", "Finland", "France", "Germany", "Greece",
	"Hungary", "Iceland", "Ireland", "Israel", "Italy", "Japan", "Korea", "Latvia",
	"Lithuania", "Luxembourg", "Mexico", "Netherlands", "New Zealand", "Norway", "Poland",
	"Portugal", "Slovak Republic", "Slovenia", "Spain", "Sweden", "Switzerland", "Turkey",
	"United Kingdom", "United States",
}

// OECDMembers returns a copy of the member list used by the allow-list filters
func OECDMembers() []string {
	return append([]string(nil), oecdMembers...)
}

package flights

import (
	"fmt"
	"regexp"
	"strconv"
)

var durationRe = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?`)

// FormatDuration renders an ISO-8601 duration such as "PT2H5M" as
// "2 hours 5 minutes". Days fold into hours; unparseable input yields zeros.
func FormatDuration(iso string) string {
	m := durationRe.FindStringSubmatch(iso)
	var days, hours, minutes int
	if m != nil {
		days, _ = strconv.Atoi(m[1])
		hours, _ = strconv.Atoi(m[2])
		minutes, _ = strconv.Atoi(m[3])
	}
	return fmt.Sprintf("%d hours %d minutes", days*24+hours, minutes)
}

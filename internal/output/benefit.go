package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// MemberBenefit is one household member's Social Security benefit in
// start-year dollars
type MemberBenefit struct {
	Name     string
	ClaimAge int
	PIA      float64 // monthly
	Factor   float64 // claim-age adjustment applied to the PIA
	Monthly  float64
	// ByClaimAge holds the monthly benefit for each age from FirstClaimAge on
	ByClaimAge []float64
}

// FirstClaimAge is the earliest age a retirement benefit can be claimed
const FirstClaimAge = 62

// FormatBenefits renders the benefit summary and the claim-age table
func FormatBenefits(members []MemberBenefit) string {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, titleStyle.Render("SOCIAL SECURITY BENEFITS"))
	fmt.Fprintln(&buf, strings.Repeat("=", 60))

	for _, m := range members {
		fmt.Fprintln(&buf, sectionStyle.Render(m.Name))
		line(&buf, "Monthly PIA", FormatCurrency(m.PIA))
		line(&buf, "Claim age", strconv.Itoa(m.ClaimAge))
		line(&buf, "Adjustment", fmt.Sprintf("%.4f", m.Factor))
		line(&buf, "Monthly benefit", FormatCurrency(m.Monthly))
		line(&buf, "Annual benefit", FormatCurrency(m.Monthly*12))
		fmt.Fprintln(&buf)
	}

	if len(members) == 0 {
		return buf.String()
	}

	headers := []string{"Claim age"}
	for _, m := range members {
		headers = append(headers, m.Name)
	}
	t := newTable(headers...)
	for i := range members[0].ByClaimAge {
		row := []string{strconv.Itoa(FirstClaimAge + i)}
		for _, m := range members {
			v := ""
			if i < len(m.ByClaimAge) {
				v = FormatCurrency(m.ByClaimAge[i])
			}
			row = append(row, v)
		}
		t.Row(row...)
	}
	fmt.Fprintln(&buf, sectionStyle.Render("MONTHLY BENEFIT BY CLAIM AGE"))
	fmt.Fprintln(&buf, t.Render())
	return buf.String()
}

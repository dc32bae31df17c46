package service

import (
	"fmt"
	"strconv"
	"strings"
)

// reportBuilder accumulates the bullet sections of a text report
type reportBuilder struct {
	sb strings.Builder
}

func newReport(header string) *reportBuilder {
	r := &reportBuilder{}
	r.sb.WriteString(header)
	r.sb.WriteString("\n")
	return r
}

// section starts a titled block preceded by a blank line
func (r *reportBuilder) section(title string) {
	r.sb.WriteString("\n")
	r.sb.WriteString(title)
	r.sb.WriteString("\n")
}

func (r *reportBuilder) bullet(format string, args ...interface{}) {
	r.sb.WriteString("• ")
	fmt.Fprintf(&r.sb, format, args...)
	r.sb.WriteString("\n")
}

// bulletIf writes the bullet only when cond holds
func (r *reportBuilder) bulletIf(cond bool, format string, args ...interface{}) {
	if cond {
		r.bullet(format, args...)
	}
}

func (r *reportBuilder) String() string {
	return r.sb.String()
}

// fixed formats v with n decimals
func fixed(v float64, n int) string {
	return strconv.FormatFloat(v, 'f', n, 64)
}

// plain formats v with the shortest exact representation
func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

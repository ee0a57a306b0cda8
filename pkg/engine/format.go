package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/ripples/pkg/ripple"
)

// FormatScene renders s as scene source that Evaluate reads back into an
// equal scene.
func FormatScene(s ripple.Scene) string {
	var b strings.Builder
	p := s.Params
	fmt.Fprintf(&b, "(surface :size %s :thickness %s :resolution %d\n", num(p.Size), num(p.Thickness), p.Resolution)
	fmt.Fprintf(&b, "         :amplitude %s :frequency %s :rings %d)\n", num(p.Amplitude), num(p.Frequency), p.Rings)
	b.WriteString("\n")
	for _, src := range s.Sources {
		fmt.Fprintf(&b, "(wave-source :x %s :y %s :power %s)\n", num(src.X), num(src.Y), num(src.Power))
	}
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

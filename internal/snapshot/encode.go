// internal/snapshot/encode.go
package snapshot

import (
	"bufio"
	"io"
	"strings"
)

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Encode renders s as exposition text, one line per series:
//
//	name{k1="v1",k2="v2"} value
//
// Values are plain decimal integers. No IO beyond w.
func Encode(w io.Writer, s *Snapshot) error {
	if s == nil {
		return nil
	}
	bw := bufio.NewWriter(w)

	for _, sv := range s.Series {
		bw.WriteString(sv.Name)
		if len(sv.Labels) > 0 {
			bw.WriteByte('{')
			for i, l := range sv.Labels {
				if i > 0 {
					bw.WriteByte(',')
				}
				bw.WriteString(l.Key)
				bw.WriteString(`="`)
				labelEscaper.WriteString(bw, l.Value)
				bw.WriteByte('"')
			}
			bw.WriteByte('}')
		}
		bw.WriteByte(' ')
		if sv.Value == nil {
			bw.WriteByte('0')
		} else {
			bw.WriteString(sv.Value.String())
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}
